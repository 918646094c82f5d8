package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostFormValidate(t *testing.T) {
	gid := int64(1)

	valid := PostForm{Text: "привет", GroupID: &gid}
	assert.NoError(t, valid.Validate())

	for _, text := range []string{"", " ", "\n\t "} {
		form := PostForm{Text: text}
		err := form.Validate()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "text %q", text)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "text", verr.Fields[0].Field)
	}
}

func TestPostFormFieldsMetadata(t *testing.T) {
	fields := PostFormFields()
	require.Len(t, fields, 2)

	assert.Equal(t, "text", fields[0].Name)
	assert.Equal(t, "Сообщение", fields[0].Label)
	assert.Equal(t, "Введите сообщение", fields[0].HelpText)
	assert.True(t, fields[0].Required)

	assert.Equal(t, "group", fields[1].Name)
	assert.Equal(t, "Группа", fields[1].Label)
	assert.Equal(t, "Выберите группу", fields[1].HelpText)
	assert.False(t, fields[1].Required)
}
