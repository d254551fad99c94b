package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSchema = Schema{
	{Name: "Card ID", Kind: KindText},
	{Name: "Colors", Kind: KindMultiSelect},
	{Name: "CMC", Kind: KindNumber},
	{Name: "Cards", Kind: KindRelation, Target: "cards-db"},
}

func TestSchemaValidate(t *testing.T) {
	n := 2.0
	tests := []struct {
		name    string
		fields  Fields
		wantErr string
	}{
		{
			name:   "valid",
			fields: Fields{"Name": Title("Bolt"), "Card ID": Text("id"), "CMC": Number(&n), "Cards": Relation([]string{"r1"})},
		},
		{
			name:    "missing title",
			fields:  Fields{"Card ID": Text("id")},
			wantErr: `payload must set the title field "Name"`,
		},
		{
			name:    "title on wrong field",
			fields:  Fields{"Title": Title("Bolt")},
			wantErr: `title value set on "Title", want "Name"`,
		},
		{
			name:    "unknown field",
			fields:  Fields{"Name": Title("Bolt"), "Flavor": Text("x")},
			wantErr: `field "Flavor" is not in the schema`,
		},
		{
			name:    "kind mismatch",
			fields:  Fields{"Name": Title("Bolt"), "Colors": Select("R")},
			wantErr: `field "Colors" is multi_select, got select value`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSchema.Validate("Name", tt.fields)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValueConstructorsCopyInput(t *testing.T) {
	names := []string{"R"}
	v := MultiSelect(names)
	names[0] = "G"
	assert.Equal(t, []string{"R"}, v.Items)
}

func TestValueEmpty(t *testing.T) {
	n := 0.0
	assert.True(t, Text("").Empty())
	assert.True(t, MultiSelect(nil).Empty())
	assert.True(t, Number(nil).Empty())
	assert.False(t, Number(&n).Empty())
	assert.False(t, Files([]string{"u"}).Empty())
}

func TestFieldsNamesSorted(t *testing.T) {
	f := Fields{"b": Text(""), "a": Text(""), "c": Text("")}
	assert.Equal(t, []string{"a", "b", "c"}, f.Names())
}
