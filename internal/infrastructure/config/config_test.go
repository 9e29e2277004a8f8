package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/domain/form"
	sharedConfig "deskbridge/internal/shared/config"
)

const baseConfig = `
server:
  port: 8088
database:
  driver: sqlite
  path: ":memory:"
sync:
  channels:
    - id: CSUPPORT
      form: account_change
  forms:
    - key: account_change
      subject_template: "Customer Issue: {Account Name}"
      fields:
        - source: Account Name
          target_id: 101
      group:
        field: Request Type
        rules:
          - match: Cancel
            group_id: 1
          - match: default
            group_id: 2
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", baseConfig)

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.Sync.Retention)
	assert.Equal(t, 6*time.Hour, cfg.Sync.CleanupInterval)
	assert.Equal(t, "[synced by deskbridge]", cfg.Sync.RelaySignature)
	assert.Equal(t, "create_zendesk_ticket", cfg.Sync.ShortcutCallbackID)
	assert.Equal(t, uint(3), cfg.Retry.MaxAttempts)
	require.Len(t, cfg.Sync.Forms, 1)
	assert.Equal(t, "Customer Issue: {Account Name}", cfg.Sync.Forms[0].SubjectTemplate)
	assert.Same(t, cfg, Get())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", baseConfig)

	t.Setenv("DESKBRIDGE_SLACK_BOT_TOKEN", "xoxb-prefixed")
	t.Setenv("ZENDESK_SUBDOMAIN", "acme")
	t.Setenv("ZENDESK_TICKET_FORM_ID", "360001")
	t.Setenv("DESKBRIDGE_SYNC_RETENTION", "48h")

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, "xoxb-prefixed", cfg.Slack.BotToken)
	assert.Equal(t, "acme", cfg.Zendesk.Subdomain)
	assert.Equal(t, "https://acme.zendesk.com", cfg.Zendesk.GetBaseURL())
	assert.Equal(t, int64(360001), cfg.Zendesk.DefaultTicketFormID)
	assert.Equal(t, 48*time.Hour, cfg.Sync.Retention)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", baseConfig)
	writeFile(t, dir, ".env", "SLACK_SIGNING_SECRET=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("SLACK_SIGNING_SECRET") })

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Slack.SigningSecret)
}

func TestLoadMergesFormsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	formsPath := writeFile(t, dir, "forms.yaml", `
channels:
  - id: CBILLING
    form: billing
forms:
  - key: billing
    ticket_form_id: 77
    tags: [billing]
`)
	path := writeFile(t, dir, "config.yaml", baseConfig+"  forms_file: "+formsPath+"\n")

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Len(t, cfg.Sync.Channels, 2)
	assert.Len(t, cfg.Sync.Forms, 2)
}

func TestLoadFormsFileRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "forms.yaml", `
forms:
  - key: billing
    subjet_template: typo
`)

	_, err := LoadFormsFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Run("alert channel required when enabled", func(t *testing.T) {
		path := writeFile(t, dir, "alert.yaml", baseConfig+"alert:\n  enabled: true\n")
		_, err := Load("", path)
		assert.Error(t, err)
	})

	t.Run("unknown database driver", func(t *testing.T) {
		path := writeFile(t, dir, "driver.yaml", "database:\n  driver: oracle\n")
		_, err := Load("", path)
		assert.Error(t, err)
	})

	t.Run("cleanup interval too short", func(t *testing.T) {
		path := writeFile(t, dir, "interval.yaml", "sync:\n  cleanup_interval: 10s\n")
		_, err := Load("", path)
		assert.Error(t, err)
	})
}

func TestBuildCatalog(t *testing.T) {
	sync := &sharedConfig.SyncConfig{
		Channels: []sharedConfig.ChannelConfig{{ID: "CSUPPORT", Form: "account_change"}},
		Forms: []sharedConfig.FormConfig{{
			Key:    "account_change",
			Fields: []sharedConfig.FieldTargetConfig{{Source: "Account Name", TargetID: 101}},
			Group: sharedConfig.GroupConfig{
				Field: "Request Type",
				Rules: []sharedConfig.GroupRuleConfig{{Match: "Cancel", GroupID: 1}, {Match: "default", GroupID: 2}},
			},
		}},
	}

	catalog, err := BuildCatalog(sync, 360001)
	require.NoError(t, err)

	assert.True(t, catalog.IsAuthorized("CSUPPORT"))
	assert.False(t, catalog.IsAuthorized("CRANDOM"))

	m, ok := catalog.Lookup("CSUPPORT")
	require.True(t, ok)
	assert.Equal(t, int64(360001), m.TicketFormID)
	assert.Equal(t, []form.FieldTarget{{Source: "Account Name", TargetID: 101}}, m.Fields)
	assert.Len(t, m.Group.Rules, 2)
}

func TestBuildCatalogRejectsUnknownForm(t *testing.T) {
	sync := &sharedConfig.SyncConfig{
		Channels: []sharedConfig.ChannelConfig{{ID: "CSUPPORT", Form: "missing"}},
	}

	_, err := BuildCatalog(sync, 0)
	assert.Error(t, err)
}
