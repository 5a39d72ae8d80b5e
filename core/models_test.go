package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullyQualifiedName(t *testing.T) {
	assert.Equal(t, "WriterPlugin.NovelOutline", FunctionView{Plugin: "WriterPlugin", Name: "NovelOutline"}.FullyQualifiedName())
	assert.Equal(t, "SendEmail", FunctionView{Plugin: GlobalPlugin, Name: "SendEmail"}.FullyQualifiedName())
	assert.Equal(t, "SendEmail", FunctionView{Name: "SendEmail"}.FullyQualifiedName())
}

func TestNewNativeFunction(t *testing.T) {
	noop := func(ctx context.Context, vars *Variables) (string, error) { return "", nil }

	t.Run("valid", func(t *testing.T) {
		fn, err := NewNativeFunction("SendEmail", "Send an e-mail", noop,
			Parameter{Name: "input", Description: "body"},
			Parameter{Name: "email_address", Description: "recipient"})
		require.NoError(t, err)

		view := fn.View()
		assert.Equal(t, "SendEmail", view.Name)
		assert.Equal(t, "Send an e-mail", view.Description)
		assert.False(t, view.IsSemantic)
		assert.Len(t, view.Parameters, 2)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := NewNativeFunction("send email", "", noop)
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("nil handler", func(t *testing.T) {
		_, err := NewNativeFunction("SendEmail", "", nil)
		assert.ErrorIs(t, err, ErrNilFunction)
	})

	t.Run("invalid parameter", func(t *testing.T) {
		_, err := NewNativeFunction("SendEmail", "", noop, Parameter{Name: "e-mail"})
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("must panics on invalid", func(t *testing.T) {
		assert.Panics(t, func() { MustNativeFunction("", "", noop) })
	})
}

func TestNativeFunctionInvoke(t *testing.T) {
	fn := MustNativeFunction("NovelOutline", "Outline a novel",
		func(ctx context.Context, vars *Variables) (string, error) {
			marker, _ := vars.Get("endMarker")
			return vars.Input() + marker, nil
		},
		Parameter{Name: "input"},
		Parameter{Name: "endMarker", DefaultValue: "<!--===ENDPART===-->"},
	)

	t.Run("default applied", func(t *testing.T) {
		out, err := fn.Invoke(context.Background(), NewVariables("story"))
		require.NoError(t, err)
		assert.Equal(t, "story<!--===ENDPART===-->", out)
	})

	t.Run("caller variables untouched", func(t *testing.T) {
		vars := NewVariables("story")
		_, err := fn.Invoke(context.Background(), vars)
		require.NoError(t, err)
		_, ok := vars.Get("endMarker")
		assert.False(t, ok, "defaults stay local to the call")
	})

	t.Run("explicit value wins", func(t *testing.T) {
		vars := NewVariables("story")
		vars.Set("endMarker", "|")
		out, err := fn.Invoke(context.Background(), vars)
		require.NoError(t, err)
		assert.Equal(t, "story|", out)
	})

	t.Run("nil vars", func(t *testing.T) {
		out, err := fn.Invoke(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "<!--===ENDPART===-->", out)
	})

	t.Run("handler error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		failing := MustNativeFunction("Fail", "", func(ctx context.Context, vars *Variables) (string, error) {
			return "", boom
		})
		_, err := failing.Invoke(context.Background(), NewVariables(""))
		assert.ErrorIs(t, err, boom)
	})
}

func TestInPlugin(t *testing.T) {
	fn := MustNativeFunction("Joke", "", func(ctx context.Context, vars *Variables) (string, error) { return "", nil })
	bound := fn.InPlugin("FunPlugin")

	assert.Equal(t, "FunPlugin", bound.View().Plugin)
	assert.Equal(t, "", fn.View().Plugin, "original must not be modified")
}

func TestNormalizePlugin(t *testing.T) {
	assert.Equal(t, GlobalPlugin, NormalizePlugin(""))
	assert.Equal(t, GlobalPlugin, NormalizePlugin("  "))
	assert.Equal(t, "FunPlugin", NormalizePlugin("FunPlugin"))
}
