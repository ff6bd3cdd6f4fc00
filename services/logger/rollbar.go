package logsvc

import (
	"context"
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
)

// RollbarLogger prints to std and reports to Rollbar (when enabled).
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the pending reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// report holds what is sent to Rollbar for one log call.
type report struct {
	ctx    context.Context
	msg    string
	err    error
	req    *http.Request
	extras map[string]interface{}
}

// newReport sorts the log args: the first error is reported with its stack, the first user.User
// becomes the Rollbar person, maps are merged into the extras and anything else is listed under "args".
func newReport(msg string, args []interface{}) report {
	r := report{ctx: context.Background(), msg: msg, extras: make(map[string]interface{})}
	var usrSet bool
	var others []interface{}

	for _, arg := range args {
		switch val := arg.(type) {
		case user.User:
			if !usrSet {
				r.ctx = rollbar.NewPersonContext(r.ctx, &rollbar.Person{Id: val.ID, Username: val.Name, Email: val.Email})
				usrSet = true
			}
		case error:
			if r.err == nil {
				r.err = val
			} else {
				others = append(others, val.Error())
			}
		case *http.Request:
			r.req = val
		case map[string]interface{}:
			for k, v := range val {
				r.extras[k] = v
			}
		default:
			others = append(others, val)
		}
	}
	if len(others) > 0 {
		r.extras["args"] = others
	}
	if r.err != nil {
		// rollbar drops the message of error items
		r.extras["message"] = msg
	}
	return r
}

func (r report) interfaces() []interface{} {
	ifaces := []interface{}{r.ctx}
	if r.err != nil {
		ifaces = append(ifaces, r.err)
	} else {
		ifaces = append(ifaces, r.msg)
	}
	if r.req != nil {
		ifaces = append(ifaces, r.req)
	}
	if len(r.extras) > 0 {
		ifaces = append(ifaces, r.extras)
	}
	return ifaces
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	rollbar.Log(level, newReport(msg, args).interfaces()...)

	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
