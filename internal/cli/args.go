package cli

import (
	"strconv"
	"strings"

	"tgcourse/internal/model"
	"tgcourse/internal/progress"
	"tgcourse/internal/util/media"
)

// Errors for malformed invocations. Each carries the text shown to the
// supervising process.
var (
	ErrConfigMissing      = &progress.Failure{Message: "Config missing."}
	ErrCredentialsMissing = &progress.Failure{Message: "Internal Error: Credentials missing."}
	ErrBadAPIID           = &progress.Failure{Message: "API ID must be a number."}
	ErrSessionMissing     = &progress.Failure{Message: "⚠️ Session missing. Please login again."}
)

// UploadArgs are the positional arguments of an upload run.
type UploadArgs struct {
	Root        string
	Credentials model.Credentials
	Target      string
	Credit      string
}

// Clean trims whitespace and then any surrounding quote characters.
func Clean(arg string) string {
	s := strings.TrimSpace(arg)
	s = strings.Trim(s, "'")
	return strings.Trim(s, `"`)
}

// ParseUploadArgs reads: root, api id, api hash, target, credit.
// Extra arguments are ignored.
func ParseUploadArgs(args []string) (UploadArgs, error) {
	if len(args) < 5 {
		return UploadArgs{}, ErrConfigMissing
	}
	creds, err := parseCredentials(Clean(args[1]), Clean(args[2]))
	if err != nil {
		return UploadArgs{}, err
	}
	return UploadArgs{
		Root:        Clean(args[0]),
		Credentials: creds,
		Target:      Clean(args[3]),
		Credit:      media.UnescapeCredit(Clean(args[4])),
	}, nil
}

// ParseLoginArgs reads: api id, api hash.
func ParseLoginArgs(args []string) (model.Credentials, error) {
	if len(args) < 2 {
		return model.Credentials{}, ErrCredentialsMissing
	}
	return parseCredentials(strings.TrimSpace(args[0]), strings.TrimSpace(args[1]))
}

func parseCredentials(id, hash string) (model.Credentials, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return model.Credentials{}, &progress.Failure{Message: ErrBadAPIID.Message, Err: err}
	}
	return model.Credentials{APIID: n, APIHash: hash}, nil
}
