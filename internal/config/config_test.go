package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `accounts:
  - id: "111111111111"
    name: prod
    org: o-corp
    variables:
      environment: production
  - id: "222222222222"
    name: dev

providers:
  memory: true

parallelism: 5
retry:
  max_retries: 2
  base_delay: 500ms
  max_delay: 10s
`

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(validConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "prod", cfg.Accounts[0].Name)
	assert.Equal(t, "production", cfg.Accounts[0].Variables["environment"])
	assert.Equal(t, 5, cfg.Parallelism)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.True(t, cfg.Providers.Memory)
	assert.Nil(t, cfg.Providers.AWS)
}

func TestFromYAML_Defaults(t *testing.T) {
	cfg, err := FromYAML([]byte("accounts:\n  - id: \"1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Parallelism)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
}

func TestFromYAML_Invalid(t *testing.T) {
	cases := map[string]string{
		"no accounts":       "parallelism: 5\n",
		"missing id":        "accounts:\n  - name: prod\n",
		"duplicate id":      "accounts:\n  - id: \"1\"\n  - id: \"1\"\n",
		"bad parallelism":   "accounts:\n  - id: \"1\"\nparallelism: -2\n",
		"s3 without bucket": "accounts:\n  - id: \"1\"\nreport:\n  s3:\n    prefix: runs\n",
		"malformed yaml":    "accounts: [unclosed\n",
	}
	for name, doc := range cases {
		_, err := FromYAML([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(validConfig), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, cfg.Accounts, 2)
}

func TestLoad_MissingFileHintsInit(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accord init")
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("repo", "accord.yaml"), Path("repo"))
}
