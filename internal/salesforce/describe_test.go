package salesforce

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestObjectDescribe_CreateableFields(t *testing.T) {
	d := &ObjectDescribe{Fields: []Field{
		{Name: "Name", Createable: true},
		{Name: "CreatedDate", Createable: false},
		{Name: "Total__c", Createable: true, Calculated: true},
		{Name: "Industry", Createable: true},
	}}
	got := d.CreateableFields()
	if len(got) != 2 {
		t.Fatalf("CreateableFields returned %d fields, want 2", len(got))
	}
	if got[0].Name != "Name" || got[1].Name != "Industry" {
		t.Errorf("CreateableFields = %v, want [Name Industry]", got)
	}
}

func TestObjectDescribe_LookupFields(t *testing.T) {
	d := &ObjectDescribe{Fields: []Field{
		{Name: "AccountId", Type: "reference", Createable: true},
		{Name: "OwnerId", Type: "reference", Createable: false},
		{Name: "Name", Type: "string", Createable: true},
	}}
	got := d.LookupFields()
	if len(got) != 1 || got[0].Name != "AccountId" {
		t.Errorf("LookupFields = %v, want [AccountId]", got)
	}
}

func TestClient_Describe_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Describe(context.Background(), "Bogus__c")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Describe error = %v, want *NotFoundError", err)
	}
	if nf.Resource != "Bogus__c" {
		t.Errorf("Resource = %q, want Bogus__c", nf.Resource)
	}
}

// validFor encodes a bitmap where bit i (MSB-first per byte) marks
// controlling value i as valid.
func validFor(t *testing.T, bits ...int) string {
	t.Helper()
	max := 0
	for _, b := range bits {
		if b > max {
			max = b
		}
	}
	bitmap := make([]byte, max/8+1)
	for _, b := range bits {
		bitmap[b/8] |= 0x80 >> (b % 8)
	}
	return base64.StdEncoding.EncodeToString(bitmap)
}

func TestDecodeValidFor(t *testing.T) {
	controlling := []PicklistValue{
		{Value: "Hardware"}, {Value: "Software"}, {Value: "Services"},
	}

	got, err := DecodeValidFor(validFor(t, 0, 2), controlling)
	if err != nil {
		t.Fatalf("DecodeValidFor returned error: %v", err)
	}
	want := []string{"Hardware", "Services"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeValidFor = %v, want %v", got, want)
	}

	got, err = DecodeValidFor("", controlling)
	if err != nil || got != nil {
		t.Errorf("empty validFor = (%v, %v), want (nil, nil)", got, err)
	}

	if _, err := DecodeValidFor("not base64!!", controlling); err == nil {
		t.Error("DecodeValidFor should reject invalid base64")
	}
}

func TestDecodeValidFor_BitmapShorterThanValues(t *testing.T) {
	// 9 controlling values but a 1-byte bitmap; values past the bitmap are skipped.
	controlling := make([]PicklistValue, 9)
	for i := range controlling {
		controlling[i] = PicklistValue{Value: string(rune('a' + i))}
	}
	got, err := DecodeValidFor(base64.StdEncoding.EncodeToString([]byte{0xFF}), controlling)
	if err != nil {
		t.Fatalf("DecodeValidFor returned error: %v", err)
	}
	if len(got) != 8 {
		t.Errorf("DecodeValidFor returned %d values, want 8", len(got))
	}
}

func TestFieldDependencies(t *testing.T) {
	d := &ObjectDescribe{
		Name: "Account",
		Fields: []Field{
			{
				Name: "Category__c", Type: "picklist",
				PicklistValues: []PicklistValue{
					{Value: "Hardware", Active: true},
					{Value: "Software", Active: true},
				},
			},
			{
				Name: "SubCategory__c", Type: "picklist", ControllerName: "Category__c",
				PicklistValues: []PicklistValue{
					{Value: "Laptops", Active: true, ValidFor: validFor(t, 0)},
					{Value: "Desktops", Active: true, ValidFor: validFor(t, 0)},
					{Value: "CRM", Active: true, ValidFor: validFor(t, 1)},
					{Value: "Anything", Active: true, ValidFor: validFor(t, 0, 1)},
				},
			},
		},
	}

	deps, err := d.FieldDependencies("SubCategory__c")
	if err != nil {
		t.Fatalf("FieldDependencies returned error: %v", err)
	}
	want := map[string][]string{
		"Hardware": {"Anything", "Desktops", "Laptops"},
		"Software": {"Anything", "CRM"},
	}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("FieldDependencies = %v, want %v", deps, want)
	}
}

func TestFieldDependencies_CheckboxController(t *testing.T) {
	d := &ObjectDescribe{
		Name: "Case",
		Fields: []Field{
			{Name: "IsEscalated", Type: "boolean"},
			{
				Name: "EscalationPath__c", Type: "picklist", ControllerName: "IsEscalated",
				PicklistValues: []PicklistValue{
					{Value: "Tier2", Active: true, ValidFor: validFor(t, 1)},
					{Value: "None", Active: true, ValidFor: validFor(t, 0)},
				},
			},
		},
	}

	deps, err := d.FieldDependencies("EscalationPath__c")
	if err != nil {
		t.Fatalf("FieldDependencies returned error: %v", err)
	}
	if !reflect.DeepEqual(deps["true"], []string{"Tier2"}) {
		t.Errorf(`deps["true"] = %v, want [Tier2]`, deps["true"])
	}
	if !reflect.DeepEqual(deps["false"], []string{"None"}) {
		t.Errorf(`deps["false"] = %v, want [None]`, deps["false"])
	}
}

func TestFieldDependencies_Errors(t *testing.T) {
	d := &ObjectDescribe{
		Name: "Account",
		Fields: []Field{
			{Name: "Industry", Type: "picklist"},
		},
	}

	_, err := d.FieldDependencies("Missing__c")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("missing field error = %v, want *NotFoundError", err)
	}

	_, err = d.FieldDependencies("Industry")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("independent field error = %v, want *ValidationError", err)
	}
}
