package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/server"
)

// PushResult contains the outcome of a Push
type PushResult struct {
	// State is the server state after the push, or after the rollback
	State *server.StateResponse

	// Mismatches lists answers the server did not keep
	Mismatches []string

	// RolledBack is set when the server's previous answers were restored
	RolledBack bool
}

// Push sends answers to the server and reads them back. When the server
// does not hold what was sent, its previous answers are restored and a
// verification error is returned along with the mismatches.
//
// The restore merges like any other update, so fields the push introduced
// that were previously unset stay set.
func (c *Client) Push(ctx context.Context, answers *baseconfig.BaseConfig) (*PushResult, error) {
	before, err := c.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state for snapshot: %w", err)
	}

	if _, err := c.UpdateAnswers(ctx, answers); err != nil {
		return nil, err
	}

	after, err := c.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state for verification: %w", err)
	}

	mismatches, err := DiffAnswers(answers, after.Answers)
	if err != nil {
		return nil, err
	}
	if len(mismatches) == 0 {
		logging.Debug("Pushed answers verified", zap.String("server", c.BaseURL))
		return &PushResult{State: after}, nil
	}

	verr := NewVerificationError(fmt.Sprintf("%d answer(s) did not match after push", len(mismatches)))
	logging.Warn("Pushed answers did not stick, rolling back",
		zap.String("server", c.BaseURL),
		zap.Strings("mismatches", mismatches),
	)

	restored, err := c.UpdateAnswers(ctx, before.Answers)
	if err != nil {
		return &PushResult{State: after, Mismatches: mismatches}, fmt.Errorf("%w; rollback failed: %v", verr, err)
	}
	return &PushResult{State: restored, Mismatches: mismatches, RolledBack: true}, verr
}

// DiffAnswers compares every answer present in want's JSON form with got
// and describes each difference. Empty omitempty fields in want are not
// compared.
func DiffAnswers(want, got *baseconfig.BaseConfig) ([]string, error) {
	w, err := answerMap(want)
	if err != nil {
		return nil, err
	}
	g, err := answerMap(got)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []string
	for _, k := range keys {
		if !reflect.DeepEqual(w[k], g[k]) {
			diffs = append(diffs, fmt.Sprintf("%s: expected %s, got %s", k, show(w[k]), show(g[k])))
		}
	}
	return diffs, nil
}

func answerMap(bc *baseconfig.BaseConfig) (map[string]interface{}, error) {
	if bc == nil {
		return map[string]interface{}{}, nil
	}
	data, err := json.Marshal(bc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return m, nil
}

func show(v interface{}) string {
	if v == nil {
		return "(unset)"
	}
	s := fmt.Sprint(v)
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}
