package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gomoku-arena/internal/model"
	"github.com/mcoot/gomoku-arena/internal/testutil"
)

type OracleSuite struct {
	suite.Suite
	server   *httptest.Server
	reply    string
	lastBody map[string]any
	lastAuth string
	status   int
	oracle   *OpenAI
	ctx      context.Context
}

func TestOracleSuite(t *testing.T) {
	suite.Run(t, new(OracleSuite))
}

func (s *OracleSuite) SetupTest() {
	s.reply = `{"x": 7, "y": 8}`
	s.status = http.StatusOK
	s.lastBody = nil
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&s.lastBody)

		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": s.reply}, "finish_reason": "stop"},
			},
		})
	}))
	s.oracle = NewOpenAI(DefaultOpenAIConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *OracleSuite) TearDownTest() {
	s.server.Close()
}

func (s *OracleSuite) request() Request {
	board := model.NewBoard(model.BoardSize)
	board.Set(model.Position{X: 7, Y: 7}, model.StoneBlack)
	return Request{
		Board:  board.Rows(),
		Player: model.StoneWhite,
		Config: model.AIConfig{URL: s.server.URL + "/v1", Key: "sk-test", Model: "test-model"},
	}
}

// OpenAI tests

func (s *OracleSuite) TestProposeParsesJSONReply() {
	proposal, err := s.oracle.Propose(s.ctx, s.request())
	s.Require().NoError(err)

	s.Equal(model.Position{X: 7, Y: 8}, proposal.Move)
	s.Equal("AI player 2 chose (7,8)", proposal.Log)
	s.Equal("Bearer sk-test", s.lastAuth)
	s.Equal("test-model", s.lastBody["model"])
}

func (s *OracleSuite) TestProposeUsesDefaultModel() {
	req := s.request()
	req.Config.Model = ""

	_, err := s.oracle.Propose(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(model.DefaultAIModel, s.lastBody["model"])
}

func (s *OracleSuite) TestProposeSendsPriorError() {
	req := s.request()
	req.PriorError = "cell is already occupied"

	_, err := s.oracle.Propose(s.ctx, req)
	s.Require().NoError(err)

	messages, ok := s.lastBody["messages"].([]any)
	s.Require().True(ok)
	s.Require().Len(messages, 2)
	user := messages[1].(map[string]any)
	s.Contains(user["content"], "cell is already occupied")
}

func (s *OracleSuite) TestProposeReportsUnreadableReply() {
	s.reply = "I think the centre is nice"

	_, err := s.oracle.Propose(s.ctx, s.request())
	s.ErrorIs(err, model.ErrNoMoveProposed)
}

func (s *OracleSuite) TestProposeReportsAPIError() {
	s.status = http.StatusTooManyRequests

	_, err := s.oracle.Propose(s.ctx, s.request())
	s.Require().Error(err)
	s.Contains(err.Error(), "quota exceeded")
}

// Prompt tests

func (s *OracleSuite) TestBuildPromptIncludesBoardAndPlayer() {
	req := s.request()
	req.Config.CustomPrompt = "play aggressively"

	prompt := BuildPrompt(req)

	s.Contains(prompt, "15x15")
	s.Contains(prompt, "You are player 2 (white)")
	s.Contains(prompt, "play aggressively")
	s.Contains(prompt, "x= 7: 0 0 0 0 0 0 0 1 0")
	s.NotContains(prompt, "previous answer")
}

// ParseMove tests

func (s *OracleSuite) TestParseMoveFormats() {
	cases := map[string]model.Position{
		`{"x": 3, "y": 4}`:                    {X: 3, Y: 4},
		"```json\n{\"x\":10,\"y\":0}\n```":   {X: 10, Y: 0},
		`Sure! {"y": 2, "x": 1} is my move.`: {X: 1, Y: 2},
		`(5,6)`:                               {X: 5, Y: 6},
		`( 12 , 14 )`:                         {X: 12, Y: 14},
		`{"x": -1, "y": 20}`:                  {X: -1, Y: 20},
	}
	for reply, want := range cases {
		got, err := ParseMove(reply)
		s.Require().NoError(err, reply)
		s.Equal(want, got, reply)
	}
}

func (s *OracleSuite) TestParseMoveRejectsIncompleteJSON() {
	_, err := ParseMove(`{"x": 3}`)
	s.ErrorIs(err, model.ErrNoMoveProposed)
}

func (s *OracleSuite) TestParseMoveErrorCutsOnRuneBoundary() {
	_, err := ParseMove(strings.Repeat("棋", 100))
	s.Require().ErrorIs(err, model.ErrNoMoveProposed)

	msg := err.Error()
	s.True(utf8.ValidString(msg))
	s.Contains(msg, strings.Repeat("棋", 80)+"...")
	s.NotContains(msg, strings.Repeat("棋", 81))
}

func (s *OracleSuite) TestTruncate() {
	s.Equal("short", truncate("  short  ", 80))
	s.Equal("éé...", truncate("ééé", 2))
	s.Equal("abc", truncate("abc", 3))
}

// Timeout tests

type slowOracle struct {
	delay time.Duration
}

func (o *slowOracle) Propose(ctx context.Context, req Request) (Proposal, error) {
	select {
	case <-time.After(o.delay):
		return Proposal{Move: model.Position{X: 1, Y: 1}}, nil
	case <-ctx.Done():
		return Proposal{}, ctx.Err()
	}
}

func (s *OracleSuite) TestWithTimeoutCancelsSlowOracle() {
	wrapped := WithTimeout(&slowOracle{delay: time.Second}, 10*time.Millisecond)

	_, err := wrapped.Propose(s.ctx, Request{})
	s.ErrorIs(err, ErrTimeout)
}

func (s *OracleSuite) TestWithTimeoutPassesFastOracle() {
	wrapped := WithTimeout(&slowOracle{delay: 0}, time.Second)

	proposal, err := wrapped.Propose(s.ctx, Request{})
	s.Require().NoError(err)
	s.Equal(model.Position{X: 1, Y: 1}, proposal.Move)
}
