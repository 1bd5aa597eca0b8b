package clierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorCarriesExitCodeAndCause(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	ue := ConfigError("malformed graphql-intel.yml", cause)

	assert.Equal(t, ExitConfig, ue.ExitCode)
	assert.Equal(t, "malformed graphql-intel.yml", ue.Cause)
	assert.ErrorIs(t, ue, cause)
	assert.Contains(t, ue.Error(), cause.Error())
}

func TestNotFoundErrorDoesNotWrapAnUnderlyingError(t *testing.T) {
	ue := NotFoundError("no such workspace root", "path does not exist", "check the --root flag")
	assert.Equal(t, ExitNotFound, ue.ExitCode)
	assert.Nil(t, ue.Unwrap())
	assert.Equal(t, "no such workspace root", ue.Error())
}

func TestInternalErrorAlwaysSuggestsFilingABug(t *testing.T) {
	ue := InternalError("unreachable state", errors.New("boom"))
	assert.Equal(t, ExitInternal, ue.ExitCode)
	assert.Contains(t, ue.Fix, "bug")
}

func TestFormatIncludesMessageCauseAndFix(t *testing.T) {
	ue := InputError("unknown flag --fmt", "expected one of: text, json", "use --format instead")
	out := ue.Format(true)
	assert.Contains(t, out, "unknown flag --fmt")
	assert.Contains(t, out, "expected one of: text, json")
	assert.Contains(t, out, "use --format instead")
}

func TestToJSONMirrorsFields(t *testing.T) {
	ue := ParseError("schema.graphql", "unexpected token", errors.New("parse failed"))
	j := ue.ToJSON()
	assert.Equal(t, ue.Message, j.Error)
	assert.Equal(t, ue.Cause, j.Cause)
	assert.Equal(t, ue.Fix, j.Fix)
	assert.Equal(t, ExitParse, j.ExitCode)
}
