package cmd

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/config"
	"github.com/TheGoldLab/mxgram/pkg/di"
	"github.com/TheGoldLab/mxgram/pkg/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numberDoc = `{"kind":"number","dims":[1,3],"data":[1,2,3]}`

const numberHex = "240000001800080001000300" +
	"000000000000f03f" + "0000000000000040" + "0000000000000840"

// channelTransport shares one queue between every transport the factory
// opens, so a send in one command is received by the next.
type channelTransport struct {
	queue  chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *channelTransport) Send(ctx context.Context, data []byte) error {
	select {
	case c.queue <- append([]byte{}, data...):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *channelTransport) Receive(ctx context.Context, buf []byte) (int, error) {
	select {
	case d := <-c.queue:
		return copy(buf, d), nil
	case <-c.closed:
		return 0, transport.ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *channelTransport) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *channelTransport) String() string { return "channel" }

func testContainer(t *testing.T) *di.Container {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Archive.DataDir = t.TempDir()

	queue := make(chan []byte, 16)
	c := di.NewContainer(cfg)
	c.SetLogger(log.New(io.Discard, "", 0))
	c.SetTransportFactory(func(ctx context.Context, cfg config.Transport) (transport.Transport, error) {
		return &channelTransport{queue: queue, closed: make(chan struct{})}, nil
	})
	return c
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}

func execute(t *testing.T, c *di.Container, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	SetContainer(c)
	t.Cleanup(func() { SetContainer(nil) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// subcommands keep the context of their first run unless it is replaced
	setContext(rootCmd, ctx)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	t.Run("hex to stdout", func(t *testing.T) {
		out, err := execute(t, testContainer(t), numberDoc, "encode")
		require.NoError(t, err)
		assert.Equal(t, numberHex, strings.TrimSpace(out))
	})

	t.Run("raw bytes to file", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "doc.json")
		target := filepath.Join(dir, "value.gram")
		require.NoError(t, os.WriteFile(in, []byte(numberDoc), 0644))

		out, err := execute(t, testContainer(t), "", "encode", in, "--out", target)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 36 bytes")

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Len(t, data, 36)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := execute(t, testContainer(t), `{"kind":"matrix"}`, "encode")
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, testContainer(t), numberDoc, "encode", "--format", "xml")
		assert.Error(t, err)
	})
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, testContainer(t), numberHex+"\n", "decode", "--hex")
	require.NoError(t, err)
	assert.JSONEq(t, numberDoc, out)

	_, err = execute(t, testContainer(t), numberHex[:40], "decode", "--hex")
	assert.Error(t, err, "truncated gram should fail")

	_, err = execute(t, testContainer(t), "zz", "decode", "--hex")
	assert.Error(t, err, "non-hex input should fail")
}

func TestInspectCommand(t *testing.T) {
	out, err := execute(t, testContainer(t), numberHex, "inspect", "--hex", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "00000000  24 00 00 00")
	assert.Contains(t, out, "Number 1x3 total=36 data=24 elem=8")
}

func TestSendAndListen(t *testing.T) {
	c := testContainer(t)

	out, err := execute(t, c, `{"kind":"text","text":"hello"}`, "send")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent Text over channel")

	out, err = execute(t, c, "", "listen", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"text":"hello"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSelfTestCommand(t *testing.T) {
	out, err := execute(t, testContainer(t), "", "selftest")
	require.NoError(t, err)
	assert.Contains(t, out, "Sanity test for uint16:")
	for _, name := range []string{"gram", "json", "msgpack"} {
		assert.Contains(t, out, "Round trip "+name)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, nil, "", "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)
	assert.FileExists(t, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.API.APIKey, 64)

	out, err = execute(t, nil, "", "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = execute(t, nil, "", "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, cfg.API.APIKey)

	out, err = execute(t, nil, "", "config", "show", "--config", path, "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, cfg.API.APIKey)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := execute(t, nil, "", "config", "show", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestListenRecordAndReplay(t *testing.T) {
	c := testContainer(t)
	path := filepath.Join(t.TempDir(), "session.rec")

	_, err := execute(t, c, `{"kind":"number","dims":[1,1],"data":[7]}`, "send")
	require.NoError(t, err)
	_, err = execute(t, c, "", "listen", "--count", "1", "--record", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err := execute(t, c, "", "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "channel {")
	assert.Contains(t, out, `"data":[7]`)

	out, err = execute(t, c, "", "replay", path, "--send")
	require.NoError(t, err)
	assert.Contains(t, out, "Resent 1 datagrams")

	out, err = execute(t, c, "", "listen", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"data":[7]`)
}

func TestReplayMissingFile(t *testing.T) {
	_, err := execute(t, testContainer(t), "", "replay", filepath.Join(t.TempDir(), "missing.rec"))
	assert.Error(t, err)
}
