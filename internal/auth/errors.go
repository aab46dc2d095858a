package auth

import "net/http"

// Kind は認証エラーの分類です。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnauthorized
	KindTooManyAttempts
)

// HTTPStatus は Kind に対応する HTTP ステータスコードを返します。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error はクライアントに返してよい認証エラーです。
// Message はそのままレスポンスの "error" に載ります。
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmailMissing    = &Error{Kind: KindValidation, Message: "email missing"}
	ErrPasswordMissing = &Error{Kind: KindValidation, Message: "password missing"}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Message: "no user found for this email"}
	ErrWrongPassword   = &Error{Kind: KindUnauthorized, Message: "wrong password"}
	ErrNoSession       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrTooManyAttempts = &Error{Kind: KindTooManyAttempts, Message: "too many login attempts"}
)
