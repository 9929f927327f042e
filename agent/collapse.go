package agent

import (
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

// CollapseHistory folds every run of non-human messages into one model
// output holding the plain-text transcript of that run: each action followed
// by its observation, then the pending final answer if there is one. Human
// messages pass through unchanged and keep their positions.
func CollapseHistory(messages []session.Message) ([]session.Message, error) {
	var collapsed []session.Message
	var run []session.Message

	for _, msg := range messages {
		if !msg.IsHuman() {
			run = append(run, msg)
			continue
		}
		if len(run) > 0 {
			folded, err := collapseRun(run)
			if err != nil {
				return nil, err
			}
			collapsed = append(collapsed, folded)
			run = nil
		}
		collapsed = append(collapsed, msg)
	}

	if len(run) > 0 {
		folded, err := collapseRun(run)
		if err != nil {
			return nil, err
		}
		collapsed = append(collapsed, folded)
	}

	return collapsed, nil
}

// collapseRun renders one run of actions and observations. A trailing model
// output is the final answer; everything before it must pair up.
func collapseRun(run []session.Message) (session.Message, error) {
	scratchpad := run
	var final *session.Message
	if last := run[len(run)-1]; last.IsModelOutput() {
		final = &last
		scratchpad = run[:len(run)-1]
	}

	if len(scratchpad)%2 != 0 {
		return session.Message{}, errors.Wrapf(errors.ErrMalformedHistory,
			"scratchpad has %d messages, an action is missing its observation", len(scratchpad))
	}

	var log strings.Builder
	for i := 0; i < len(scratchpad); i += 2 {
		action, obs := scratchpad[i], scratchpad[i+1]
		if !action.IsModelOutput() || obs.Role != session.RoleTool {
			return session.Message{}, errors.Wrapf(errors.ErrMalformedHistory,
				"scratchpad pair %d is %s/%s, want %s/%s",
				i/2, action.Role, obs.Role, session.RoleAssistant, session.RoleTool)
		}
		log.WriteString(action.Content)
		log.WriteString(observation(obs.Content))
	}
	if final != nil {
		log.WriteString(final.Content)
	}

	return session.ModelOutput(log.String()), nil
}
