package mailer

import (
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySMTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad credentials", &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}, ErrAuth},
		{"auth required", &textproto.Error{Code: 530, Msg: "5.7.0 Authentication Required"}, ErrAuth},
		{"weak auth mechanism", &textproto.Error{Code: 534, Msg: "5.7.9 Application-specific password required"}, ErrAuth},
		{"service not available", &textproto.Error{Code: 421, Msg: "4.3.2 Service shutting down"}, ErrConnection},
		{"temporary failure", &textproto.Error{Code: 451, Msg: "4.4.1 Timeout"}, ErrConnection},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySMTPError(tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifySMTPErrorPassthrough(t *testing.T) {
	// Permanent recipient rejections are neither auth nor connection issues.
	err := &textproto.Error{Code: 550, Msg: "5.1.1 User unknown"}
	got := classifySMTPError(err)
	assert.NotErrorIs(t, got, ErrAuth)
	assert.NotErrorIs(t, got, ErrConnection)
	assert.Equal(t, err, got)

	plain := fmt.Errorf("something else")
	assert.Equal(t, plain, classifySMTPError(plain))
}
