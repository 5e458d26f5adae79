package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gomoku-arena/internal/api"
	"github.com/mcoot/gomoku-arena/internal/cli"
	"github.com/mcoot/gomoku-arena/internal/factory"
)

// cliRunner drives the arenactl command tree in-process against a server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "session"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs(fullArgs)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// mustRun runs a command and decodes its JSON output into result
func (r *cliRunner) mustRun(t *testing.T, result any, args ...string) {
	t.Helper()

	output, err := r.run(args...)
	require.NoError(t, err, "output: %s", output)
	if result != nil {
		require.NoError(t, json.Unmarshal([]byte(output), result), "output: %s", output)
	}
}

type testServer struct {
	app *factory.TestApp
	url string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:     app.Logger,
		Sessions:   app.Sessions,
		Rooms:      app.Rooms,
		Match:      app.Match,
		Autoplay:   app.Autoplay,
		HubManager: app.HubManager,
	}))
	t.Cleanup(func() {
		server.Close()
		_ = app.Close()
	})

	return &testServer{app: app, url: server.URL}
}

// login starts a session whose generated username is the given name
func (ts *testServer) login(t *testing.T, r *cliRunner, username string) cli.LoginResult {
	t.Helper()

	ts.app.MockRandom.QueueString(username)
	var result cli.LoginResult
	r.mustRun(t, &result, "auth", "login")
	return result
}

type messageResponse struct {
	Message string `json:"message"`
}

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	var resp cli.HealthResult
	r.mustRun(t, &resp, "health")
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AuthCommands(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	login := ts.login(t, r, "alice")
	assert.Equal(t, "alice", login.Username)
	assert.NotEmpty(t, login.SessionID)

	// The session is read back from the token file
	var me cli.MeResult
	r.mustRun(t, &me, "auth", "me")
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, login.SessionID, me.SessionID)

	var renamed messageResponse
	r.mustRun(t, &renamed, "auth", "rename", "alicia")
	assert.Equal(t, "Username is now alicia", renamed.Message)

	r.mustRun(t, &me, "auth", "me")
	assert.Equal(t, "alicia", me.Username)
}

func TestCLI_MeWithoutSession(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)

	_, err := r.run("auth", "me")
	require.Error(t, err)

	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestCLI_RoomCommands(t *testing.T) {
	ts := startTestServer(t)
	alice := newCLIRunner(t, ts.url)
	bobby := newCLIRunner(t, ts.url)
	ts.login(t, alice, "alice")
	ts.login(t, bobby, "bobby")

	var created cli.CreateRoomResult
	alice.mustRun(t, &created, "room", "create")
	require.NotEmpty(t, created.RoomID)
	assert.False(t, created.AlreadyInRoom)

	var again cli.CreateRoomResult
	alice.mustRun(t, &again, "room", "create")
	assert.True(t, again.AlreadyInRoom)
	assert.Equal(t, created.RoomID, again.RoomID)

	bobby.mustRun(t, nil, "room", "join", created.RoomID)
	bobby.mustRun(t, nil, "room", "say", created.RoomID, "good", "luck")

	var list cli.RoomList
	alice.mustRun(t, &list, "room", "list")
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, []string{"alice", "bobby"}, list.Rooms[0].Players)

	var room cli.Room
	alice.mustRun(t, &room, "room", "get", created.RoomID)
	assert.Equal(t, "alice", room.Owner)
	require.Len(t, room.Messages, 1)
	assert.Equal(t, "good luck", room.Messages[0].Message)

	// Only the owner may delete
	_, err := bobby.run("room", "delete", created.RoomID)
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_OWNER", apiErr.Code)

	var left messageResponse
	bobby.mustRun(t, &left, "room", "leave", created.RoomID)
	assert.Contains(t, left.Message, "Left room")

	alice.mustRun(t, nil, "room", "delete", created.RoomID)
	alice.mustRun(t, &list, "room", "list")
	assert.Empty(t, list.Rooms)
}

func TestCLI_FullMatchFlow(t *testing.T) {
	ts := startTestServer(t)
	alice := newCLIRunner(t, ts.url)
	bobby := newCLIRunner(t, ts.url)
	ts.login(t, alice, "alice")
	ts.login(t, bobby, "bobby")

	var created cli.CreateRoomResult
	alice.mustRun(t, &created, "room", "create")
	roomID := created.RoomID
	bobby.mustRun(t, nil, "room", "join", roomID)

	alice.mustRun(t, nil, "match", "color", roomID, "white")

	for _, r := range []*cliRunner{alice, bobby} {
		r.mustRun(t, nil, "match", "config", roomID, "--key", "sk-test-1234567", "--model", "gpt-4o-mini")
		r.mustRun(t, nil, "match", "lock", roomID)
		r.mustRun(t, nil, "match", "ready", roomID)
	}

	// Alice plays white, so bobby's AI moves first
	ts.app.MockOracle.QueueMove(7, 7)
	var proposed messageResponse
	bobby.mustRun(t, &proposed, "match", "step", roomID)
	assert.Equal(t, "Proposed (7,7)", proposed.Message)

	var confirmed cli.ConfirmResult
	alice.mustRun(t, &confirmed, "match", "confirm", roomID)
	assert.Equal(t, cli.Move{X: 7, Y: 7, Player: 1}, confirmed.Move)
	assert.Equal(t, 2, confirmed.CurrentPlayer)

	// Autostep for alice, confirming once the AI answers
	ts.app.MockOracle.QueueMove(8, 8)
	var job cli.Job
	alice.mustRun(t, &job, "match", "autostep", roomID, "--confirm", "--wait")
	assert.Equal(t, "succeeded", job.State)
	assert.True(t, job.Confirmed)
	require.NotNil(t, job.Move)
	assert.Equal(t, cli.Position{X: 8, Y: 8}, *job.Move)

	var fetched cli.Job
	alice.mustRun(t, &fetched, "match", "job", roomID, job.ID)
	assert.Equal(t, job.ID, fetched.ID)

	var room cli.Room
	bobby.mustRun(t, &room, "room", "get", roomID)
	assert.Len(t, room.Moves, 2)
	assert.Equal(t, 1, room.CurrentPlayer)
	assert.Equal(t, 2, room.Board[8][8])
	assert.True(t, strings.HasSuffix(room.AIConfigs["alice"].Key, "4567"))
	assert.NotEqual(t, "sk-test-1234567", room.AIConfigs["alice"].Key)
}

func TestCLI_StepFailureReportsCode(t *testing.T) {
	ts := startTestServer(t)
	alice := newCLIRunner(t, ts.url)
	ts.login(t, alice, "alice")

	var created cli.CreateRoomResult
	alice.mustRun(t, &created, "room", "create")

	_, err := alice.run("match", "step", created.RoomID)
	var apiErr *cli.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "NOT_ENOUGH_PLAYERS", apiErr.Code)
}

func TestCLI_TextOutput(t *testing.T) {
	ts := startTestServer(t)
	r := newCLIRunner(t, ts.url)
	ts.login(t, r, "alice")

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs([]string{"--server", r.serverURL, "--token-file", r.tokenFile, "room", "create"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.True(t, strings.HasPrefix(out.String(), "Created room "), out.String())
}
