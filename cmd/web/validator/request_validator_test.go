package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"affiliate/kit/errs"
)

type sample struct {
	Name string `json:"name"`
}

func TestJSON_Decode(t *testing.T) {
	var tests = []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"jane"}`},
		{name: "malformed", body: `{`, wantErr: true},
		{name: "unknown field", body: `{"name":"jane","age":3}`, wantErr: true},
		{name: "trailing value", body: `{"name":"jane"}{}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sample
			err := NewJSON().Decode(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "jane", dst.Name)
		})
	}
}

func TestJSON_Raw(t *testing.T) {
	t.Parallel()
	v := NewJSON()

	raw, err := v.Raw(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"event":"x"}`)))
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"x"}`, string(raw))

	_, err = v.Raw(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")))
	require.ErrorIs(t, err, ErrEmptyBody)

	v.MaxBytes = 4
	_, err = v.Raw(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"event":"x"}`)))
	require.ErrorIs(t, err, errs.ErrInvalidRequest)
}

func TestJSON_DecodeOptional(t *testing.T) {
	t.Parallel()
	v := NewJSON()

	dst := sample{Name: "kept"}
	require.NoError(t, v.DecodeOptional(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), &dst))
	require.Equal(t, "kept", dst.Name)

	require.NoError(t, v.DecodeOptional(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"jane"}`)), &dst))
	require.Equal(t, "jane", dst.Name)

	err := v.DecodeOptional(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &dst)
	require.ErrorIs(t, err, ErrInvalidJSON)
}
