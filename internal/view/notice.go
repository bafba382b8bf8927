package view

import "github.com/jask/finplan/internal/api"

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is the single status line shown to the user. A new notice replaces
// the previous one.
type Notice struct {
	Kind NoticeKind
	Text string
}

func successNotice(text string) Notice {
	return Notice{Kind: NoticeSuccess, Text: text}
}

func errorNotice(err error) Notice {
	return Notice{Kind: NoticeError, Text: api.DisplayMessage(err)}
}
