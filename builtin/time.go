package builtin

import (
	"context"
	"strconv"
	"time"

	"github.com/poiesic/semkit/core"
)

// TimePluginName is the conventional plugin name for TimePlugin.
const TimePluginName = "time"

// TimePlugin returns date and time functions. A nil clock uses time.Now.
func TimePlugin(clock func() time.Time) []*core.NativeFunction {
	if clock == nil {
		clock = time.Now
	}
	format := func(name, description string, fn func(time.Time) string) *core.NativeFunction {
		return core.MustNativeFunction(name, description,
			func(context.Context, *core.Variables) (string, error) {
				return fn(clock()), nil
			})
	}
	return []*core.NativeFunction{
		format("today", "Get the current date", func(t time.Time) string {
			return t.Format("Monday, January 2, 2006")
		}),
		format("now", "Get the current date and time", func(t time.Time) string {
			return t.Format("Monday, January 2, 2006 3:04 PM")
		}),
		format("year", "Get the current year", func(t time.Time) string {
			return strconv.Itoa(t.Year())
		}),
	}
}
