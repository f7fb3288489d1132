package jsonval

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestParsePreservesMemberOrder(t *testing.T) {
	v, err := Parse([]byte(`{"b": 1, "a": 2, "c": {"nested": true}}`))
	check.Nil(t, err)
	check.Equal(t, KindObject, v.Kind())

	members := v.Members()
	check.Equal(t, 3, len(members))
	check.Equal(t, "b", members[0].Key)
	check.Equal(t, "a", members[1].Key)
	check.Equal(t, "c", members[2].Key)
}

func TestGet(t *testing.T) {
	v, err := Parse([]byte(`{"title": "Leaf", "year": 2021}`))
	check.Nil(t, err)

	title, ok := v.Get("title")
	check.True(t, ok)
	s, ok := title.Text()
	check.True(t, ok)
	check.Equal(t, "Leaf", s)

	_, ok = v.Get("missing")
	check.False(t, ok)

	_, ok = String("not an object").Get("title")
	check.False(t, ok)
}

func TestNullAndZeroValue(t *testing.T) {
	v, err := Parse([]byte(`{"title": null}`))
	check.Nil(t, err)

	title, ok := v.Get("title")
	check.True(t, ok)
	check.True(t, title.IsNull())

	var zero Value
	check.True(t, zero.IsNull())
}

func TestTextCoversScalars(t *testing.T) {
	cases := []struct {
		in   Value
		want string
		ok   bool
	}{
		{String("hello"), "hello", true},
		{Number("42"), "42", true},
		{Bool(true), "true", true},
		{Null(), "", false},
		{Array(String("x")), "", false},
		{Object(Member{Key: "k", Value: Int(1)}), "", false},
	}
	for _, tc := range cases {
		got, ok := tc.in.Text()
		check.Equal(t, tc.ok, ok)
		check.Equal(t, tc.want, got)
	}
}

func TestIntValueCoercion(t *testing.T) {
	n, ok := Number("1500").IntValue()
	check.True(t, ok)
	check.Equal(t, int64(1500), n)

	n, ok = Number("1500.9").IntValue()
	check.True(t, ok)
	check.Equal(t, int64(1500), n)

	n, ok = String("1500.75").IntValue()
	check.True(t, ok)
	check.Equal(t, int64(1500), n)

	n, ok = Number("-3.7").IntValue()
	check.True(t, ok)
	check.Equal(t, int64(-3), n)

	_, ok = String("not a number").IntValue()
	check.False(t, ok)

	_, ok = Bool(true).IntValue()
	check.False(t, ok)
}

func TestNonBlankText(t *testing.T) {
	_, ok := String("").NonBlankText()
	check.False(t, ok)

	_, ok = String("   ").NonBlankText()
	check.False(t, ok)

	_, ok = String("null").NonBlankText()
	check.False(t, ok)

	_, ok = String("NULL").NonBlankText()
	check.False(t, ok)

	s, ok := String("Model X").NonBlankText()
	check.True(t, ok)
	check.Equal(t, "Model X", s)

	s, ok = Number("12").NonBlankText()
	check.True(t, ok)
	check.Equal(t, "12", s)
}

func TestUnmarshalIntoStructField(t *testing.T) {
	var dto struct {
		Message string `json:"message"`
		Data    Value  `json:"data"`
	}
	err := json.Unmarshal([]byte(`{"message": "ok", "data": [{"id": "a1"}]}`), &dto)
	check.Nil(t, err)
	check.Equal(t, KindArray, dto.Data.Kind())
	check.Equal(t, 1, len(dto.Data.Elements()))
}

func TestMarshalRoundTrip(t *testing.T) {
	raw := []byte(`{"z":"last","a":[1,2.5,null,true],"s":"x"}`)
	v, err := Parse(raw)
	check.Nil(t, err)

	out, err := json.Marshal(v)
	check.Nil(t, err)
	check.Equal(t, string(raw), string(out))
}

func TestDuplicateKeysFirstWins(t *testing.T) {
	v, err := Parse([]byte(`{"id": "first", "id": "second"}`))
	check.Nil(t, err)

	id, ok := v.Get("id")
	check.True(t, ok)
	s, _ := id.Text()
	check.Equal(t, "first", s)
}
