package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePlanCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/system/my_home/create_plan"
	r := createPlanCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "my_home", "entry id extract")
}

func TestCreatePlanCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/system/my_home/state"
	r := createPlanCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestCreatePlanCommandParseOtherBase(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "planner2mqtt"
	topic := "loremTopic/system/my_home/create_plan"
	r := createPlanCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
