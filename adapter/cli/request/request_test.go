package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	internalApp "github.com/felixgeelhaar/upkeep/internal/app"
	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/domain"
	"github.com/felixgeelhaar/upkeep/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner    = identity.Principal{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Role: identity.RoleOwner}
	testOperator = identity.Principal{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Role: identity.RoleOperator}
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, application.Notification) error { return nil }

// setupLocalModeTestApp installs a SQLite-backed CLI application.
func setupLocalModeTestApp(t *testing.T) *cli.App {
	t.Helper()
	cfg, err := config.FromMap(map[string]string{
		"SQLITE_PATH": filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := internalApp.NewContainer(context.Background(), cfg, logger, internalApp.WithNotifier(nopNotifier{}))
	require.NoError(t, err)

	app := cli.NewApp(container, testOwner)
	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(Cmd)
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(io.Discard)
	Cmd.SilenceUsage = true
	Cmd.SilenceErrors = true
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func slotArg(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func TestRequestCommands_Workflow(t *testing.T) {
	app := setupLocalModeTestApp(t)
	slot := time.Now().UTC().AddDate(0, 0, 10).Truncate(24 * time.Hour).Add(10 * time.Hour)

	out, err := run(t, "create", slotArg(slot), "--service", "yearly", "--device", "boiler-1", "--json")
	require.NoError(t, err)
	var created queries.RequestDTO
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, testOwner.ID, created.OwnerID)
	id := created.ID.String()

	out, err = run(t, "mine")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "boiler-1")

	_, err = run(t, "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOperatorOnly)

	app.SetPrincipal(testOperator)
	out, err = run(t, "review", id, "--propose", slotArg(slot.Add(time.Hour)), "--approve")
	require.NoError(t, err)
	assert.Contains(t, out, "pending_user_approval")

	out, err = run(t, "list", "--status", "pending_user_approval")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	app.SetPrincipal(testOwner)
	out, err = run(t, "approve", id)
	require.NoError(t, err)
	assert.Contains(t, out, "in_progress")

	out, err = run(t, "history", id)
	require.NoError(t, err)
	assert.Contains(t, out, testOperator.ID.String())
	assert.Contains(t, out, "proposed:")

	_, err = run(t, "cancel", id)
	assert.ErrorIs(t, err, domain.ErrTooLateToCancel)
}

func TestRequestCommands_RescheduleAndCancel(t *testing.T) {
	setupLocalModeTestApp(t)
	slot := time.Now().UTC().AddDate(0, 0, 5).Truncate(24 * time.Hour).Add(15 * time.Hour)

	out, err := run(t, "create", slotArg(slot), "-s", "monthly", "--json")
	require.NoError(t, err)
	var created queries.RequestDTO
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	id := created.ID.String()

	out, err = run(t, "reschedule", id, slotArg(slot.AddDate(0, 0, 1)), "--json")
	require.NoError(t, err)
	var moved queries.RequestDTO
	require.NoError(t, json.Unmarshal([]byte(out), &moved))
	assert.Equal(t, 1, moved.ChangeCount)
	assert.True(t, moved.UserRequestedAt.Equal(slot.AddDate(0, 0, 1)))

	out, err = run(t, "cancel", id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Request cancelled"))

	_, err = run(t, "show", id)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestRequestCommands_InputErrors(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, "create", "tomorrow", "--service", "yearly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid slot")

	_, err = run(t, "create", "2030-01-07 10:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service")

	_, err = run(t, "show", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request id")
}

func TestRequestCommands_RequireApp(t *testing.T) {
	cli.SetApp(nil)
	_, err := run(t, "mine")
	assert.ErrorIs(t, err, cli.ErrNotInitialized)
}
