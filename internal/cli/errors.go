package cli

import (
	"errors"
	"fmt"
	"io"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// RenderError writes err for a human. A child that exited nonzero has
// already spoken for itself, so ExitError prints nothing.
func RenderError(w io.Writer, err error) {
	var (
		exitErr *rberrors.ExitError
		shown   *reportedError
	)
	if err == nil || errors.As(err, &exitErr) || errors.As(err, &shown) {
		return
	}
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+rberrors.UserMessage(err))
	if hint := errorHint(rberrors.GetCode(err)); hint != "" {
		fmt.Fprintln(w, "  "+StyleDim.Render(hint))
	}
}

func errorHint(code rberrors.Code) string {
	switch code {
	case rberrors.ErrCodeRubiesDirNotFound:
		return "Install a Ruby under that directory, or point rb elsewhere with --rubies-dir or RB_RUBIES_DIR."
	case rberrors.ErrCodeNoSuitableRuby:
		return "Run `rb runtime` to see which versions are installed."
	case rberrors.ErrCodeCommandNotFound:
		return "Run `rb env` to see the PATH rb composes."
	case rberrors.ErrCodeBundlerNotFound:
		return "Install it for the selected Ruby: rb exec gem install bundler"
	case rberrors.ErrCodeNoBundlerProject:
		return "Create a Gemfile, or run from inside a bundler project."
	case rberrors.ErrCodeNoProject:
		return "Create one with `rb init`."
	case rberrors.ErrCodeScriptNotFound:
		return "Run `rb run` to list the available scripts."
	case rberrors.ErrCodeInvalidConfig:
		return "Check the RB_* variables and the file shown by `rb config`."
	}
	return ""
}

// reportedError marks an error the command has already printed. It still
// carries the original for exit code mapping.
type reportedError struct {
	err error
}

func reported(err error) error {
	return &reportedError{err: err}
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
