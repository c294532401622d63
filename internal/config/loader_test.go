package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_EXPAND_HOST", "db.internal")

	assert.Equal(t, "db.internal", expandEnv("${TEST_EXPAND_HOST}"))
	assert.Equal(t, "db.internal", expandEnv("${TEST_EXPAND_HOST:fallback}"))
	assert.Equal(t, "fallback", expandEnv("${TEST_EXPAND_MISSING:fallback}"))
	// 无默认值且未定义时保留原样，便于发现漏配
	assert.Equal(t, "${TEST_EXPAND_MISSING}", expandEnv("${TEST_EXPAND_MISSING}"))
	assert.Equal(t, "plain text", expandEnv("plain text"))
}

func TestExpandEnvEmptyDefault(t *testing.T) {
	// ${VAR:} 形态：默认值为空串
	assert.Equal(t, "", expandEnv("${TEST_EXPAND_EMPTYDEF:}"))
}

func TestExpandEnvInYAMLSnippet(t *testing.T) {
	t.Setenv("TEST_EXPAND_PORT", "9090")
	got := expandEnv("port: ${TEST_EXPAND_PORT:8080}\nhost: ${TEST_EXPAND_NOPE:localhost}")
	assert.Equal(t, "port: 9090\nhost: localhost", got)
}
