package hsm_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/arcstate/hsm"
	"github.com/stretchr/testify/assert"
)

const (
	evNewData = iota
	evEnoughData
	evPause
	evSucceeded
	evFailed
	evResume
	evDeepResume
	evAborted
)

func evName1(i int) string {
	return []string{
		"New data",
		"Enough data",
		"Pause",
		"Succeeded",
		"Failed",
		"Resume",
		"Deep resume",
		"Aborted",
	}[i]
}

func TestPumlExample1(t *testing.T) {
	sm := hsm.StateMachine[struct{}]{}

	state1 := sm.State("State1").Initial().Build()
	state2 := sm.State("State2").Build()
	state3 := sm.State("State3").
		Update(time.Second, func(hsm.Event, struct{}) {}).
		Build()

	accEnoughData := state3.State("Accumulate enough data").Initial().Build()
	accEnoughData.AddTransition(evNewData, accEnoughData)
	accEnoughData.Defer(evAborted)

	processData := state3.State("Process data").Build()
	accEnoughData.AddTransition(evEnoughData, processData)

	state3.AddTransition(evPause, state2)
	state2.AddTransition(evSucceeded, state3)
	state2.Transition(evResume, state3).History(hsm.HistoryShallow).Build()
	state2.Transition(evDeepResume, state3).History(hsm.HistoryDeep).Build()

	state1.AddTransition(evSucceeded, state2)
	state3.AddTransition(evFailed, state3)

	state1.AddTransition(evAborted, nil)
	state2.AddTransition(evAborted, nil)
	state3.AddTransition(evAborted, nil)
	state3.Transition(evSucceeded, nil).Action("Save Result", func(hsm.Event, struct{}) {}).Build()

	sm.Finalize()
	diagram := sm.DiagramBuilder(evName1).DefaultArrow("->").Arrow(state2, state3, "--->").Build()

	assert.True(t, strings.HasPrefix(diagram, "@startuml\n\n"))
	assert.True(t, strings.HasSuffix(diagram, "\n@enduml\n"))
	for _, name := range []string{"State1", "State2", "State3", "Accumulate enough data", "Process data"} {
		assert.Contains(t, diagram, name)
	}
	assert.Contains(t, diagram, "[H] : Resume")
	assert.Contains(t, diagram, "[H*] : Deep resume")
	assert.Contains(t, diagram, "--->", "custom arrow between State2 and State3")
	assert.Contains(t, diagram, "Save Result")
	for _, s := range []*hsm.State[struct{}]{state1, state2, state3, accEnoughData, processData} {
		assert.Contains(t, diagram, "path_index="+strconv.Itoa(s.Index()))
	}
}
