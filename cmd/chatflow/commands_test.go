package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/file"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `
channels:
  - id: ch-1
    name: Support
    phone_number_id: "1234567890"
    access_token: token
    verify_token: verify
    is_active: true
flows:
  - id: welcome
    name: Welcome
    channel_id: ch-1
    trigger:
      type: keyword
      value: hi
    is_active: true
    is_published: true
    priority: 2
    nodes:
      - id: start
        type: trigger
        config: {}
      - id: greet
        type: sendText
        config:
          message: "Hello {{customer_name}}"
    edges:
      - id: e1
        source: start
        target: greet
  - id: draft
    name: Draft
    channel_id: ch-1
    trigger:
      type: any_message
    nodes: []
    edges: []
`

// run executes the CLI against a file store rooted at dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), append([]string{"chatflow", "--database-url", dir}, args...))

	return out.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	return path
}

func TestCLI_ImportListPublish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDocument(t)

	out, err := run(t, dir, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 channel(s) and 2 flow(s)")

	store := file.NewPersistence(dir)

	flow, err := store.FlowRepository().FlowByID(context.Background(), "welcome")
	require.NoError(t, err)
	assert.True(t, flow.Runnable())

	out, err = run(t, dir, "list", "--channel", "ch-1")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome")
	assert.Contains(t, out, "published")
	assert.Contains(t, out, "draft")

	out, err = run(t, dir, "unpublish", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "Unpublished welcome")

	flow, err = store.FlowRepository().FlowByID(context.Background(), "welcome")
	require.NoError(t, err)
	assert.False(t, flow.Runnable())

	out, err = run(t, dir, "publish", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "Published welcome")

	_, err = run(t, dir, "publish", "draft")
	require.ErrorIs(t, err, services.ErrNodesRequired)
}

func TestCLI_Validate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeDocument(t)

	out, err := run(t, dir, "validate", "--file", path)
	require.ErrorIs(t, err, ErrInvalidFlows)
	assert.Contains(t, out, "welcome (Welcome): valid")
	assert.Contains(t, out, "draft (Draft): invalid")

	_, err = run(t, dir, "import", path)
	require.NoError(t, err)

	out, err = run(t, dir, "validate", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome (Welcome): valid")

	_, err = run(t, dir, "validate")
	require.ErrorIs(t, err, ErrMissingArgument)
}
