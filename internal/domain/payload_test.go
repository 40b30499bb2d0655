package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPayload(t *testing.T, body string) Payload {
	t.Helper()
	p, err := ParsePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"name":"Pan"}`},
		{name: "empty body", body: ``},
		{name: "whitespace body", body: "  \n"},
		{name: "empty object", body: `{}`},
		{name: "array", body: `[1,2]`, wantErr: true},
		{name: "string", body: `"Pan"`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "broken json", body: `{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedPayload))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPayload_Replacement(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		want    Attributes
	}{
		{
			name: "name only",
			body: `{"name":"Pan"}`,
			want: Attributes{Name: "Pan"},
		},
		{
			name: "all fields",
			body: `{"name":"Pan","power":"Wild","isDemiGod":false}`,
			want: Attributes{Name: "Pan", Power: Some("Wild"), IsDemiGod: Some(false)},
		},
		{
			name: "client id is ignored",
			body: `{"id":1000,"name":"Pan"}`,
			want: Attributes{Name: "Pan"},
		},
		{
			name: "null optional is absent",
			body: `{"name":"Pan","isDemiGod":null}`,
			want: Attributes{Name: "Pan"},
		},
		{name: "missing name", body: `{"isDemiGod":true}`, wantErr: ErrNameRequired},
		{name: "empty name", body: `{"name":""}`, wantErr: ErrNameRequired},
		{name: "null name", body: `{"name":null}`, wantErr: ErrNameRequired},
		{name: "numeric name", body: `{"name":42}`, wantErr: ErrNameRequired},
		{name: "object name", body: `{"name":{"first":"Pan"}}`, wantErr: ErrNameRequired},
		{name: "numeric power", body: `{"name":"Pan","power":1}`, wantErr: ErrPowerNotString},
		{name: "string flag", body: `{"name":"Pan","isDemiGod":"yes"}`, wantErr: ErrIsDemiGodNotBoolean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustPayload(t, tt.body).Replacement()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_Patch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		want    Patch
	}{
		{
			name: "empty payload",
			body: `{}`,
			want: Patch{},
		},
		{
			name: "flag only",
			body: `{"isDemiGod":true}`,
			want: Patch{IsDemiGod: Some(true)},
		},
		{
			name: "name and power",
			body: `{"name":"Jupiter","power":"Sky"}`,
			want: Patch{Name: Some("Jupiter"), Power: Some("Sky")},
		},
		{name: "numeric name", body: `{"name":7}`, wantErr: ErrNameNotString},
		{name: "bool name", body: `{"name":true}`, wantErr: ErrNameNotString},
		{name: "empty name", body: `{"name":""}`, wantErr: ErrNameEmpty},
		{name: "array power", body: `{"power":["a"]}`, wantErr: ErrPowerNotString},
		{name: "numeric flag", body: `{"isDemiGod":1}`, wantErr: ErrIsDemiGodNotBoolean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustPayload(t, tt.body).Patch()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
