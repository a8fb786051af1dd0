package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titled struct {
	Title string `json:"title" validate:"required,notblank,max=10"`
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		want    string
	}{
		{name: "valid json", body: `{"title":"Звіт"}`, want: "Звіт"},
		{name: "unknown fields are ignored", body: `{"title":"Звіт","id":"x"}`, want: "Звіт"},
		{name: "empty body", body: "", wantErr: ErrEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var got titled
			err := DecodeJSON(req, &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Title)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"title":`))
		assert.Error(t, DecodeJSON(req, &titled{}))
	})
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(titled{Title: "Звіт"}))
	assert.Error(t, ValidateRequest(titled{Title: "   "}), "blank titles fail notblank")
	assert.Error(t, ValidateRequest(titled{Title: "дуже довга назва"}))

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.EqualError(t, ValidateRequest(selfValidating{}), "not ok")
}
