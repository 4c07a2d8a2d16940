package salesforce

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// PicklistEntry is one value of a picklist's value set as seen by the
// Metadata API.
type PicklistEntry struct {
	FullName string `json:"full_name"`
	Label    string `json:"label"`
	Default  bool   `json:"default"`
}

// metadataEndpoint returns the SOAP Metadata API endpoint for this session.
func (c *Client) metadataEndpoint() string {
	return c.instanceURL + "/services/Soap/m/" + c.apiVersion
}

// soapCall posts a Metadata API envelope and returns the response body.
// SOAP faults and non-2xx statuses are mapped into the error taxonomy.
func (c *Client) soapCall(ctx context.Context, body string) ([]byte, error) {
	envelope := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"` +
		` xmlns:met="http://soap.sforce.com/2006/04/metadata">` +
		`<soapenv:Header><met:SessionHeader><met:sessionId>` + xmlEscape(c.accessToken) + `</met:sessionId></met:SessionHeader></soapenv:Header>` +
		`<soapenv:Body>` + body + `</soapenv:Body>` +
		`</soapenv:Envelope>`

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.metadataEndpoint(), strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST metadata: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Message: "metadata API rejected session"}
	}

	var fault struct {
		FaultCode   string `xml:"Body>Fault>faultcode"`
		FaultString string `xml:"Body>Fault>faultstring"`
	}
	if err := xml.Unmarshal(respBody, &fault); err == nil && fault.FaultString != "" {
		if strings.Contains(fault.FaultCode, "INVALID_SESSION_ID") {
			return nil, &AuthError{Message: fault.FaultString}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorCode: fault.FaultCode, Message: fault.FaultString}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), 200)}
	}
	return respBody, nil
}

// ReadPicklistValueSet reads the current value set of a picklist field
// (e.g. object "Account", field "Industry") via readMetadata on CustomField.
func (c *Client) ReadPicklistValueSet(ctx context.Context, object, field string) ([]PicklistEntry, error) {
	fullName := object + "." + field
	body := `<met:readMetadata><met:type>CustomField</met:type>` +
		`<met:fullNames>` + xmlEscape(fullName) + `</met:fullNames></met:readMetadata>`

	respBody, err := c.soapCall(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Records []struct {
			FullName string `xml:"fullName"`
			ValueSet struct {
				Values []struct {
					FullName string `xml:"fullName"`
					Label    string `xml:"label"`
					Default  bool   `xml:"default"`
				} `xml:"valueSetDefinition>value"`
			} `xml:"valueSet"`
		} `xml:"Body>readMetadataResponse>result>records"`
	}
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parsing readMetadata response: %w", err)
	}
	if len(resp.Records) == 0 || resp.Records[0].FullName == "" {
		return nil, &NotFoundError{Resource: fullName, Message: "field metadata not found"}
	}

	values := resp.Records[0].ValueSet.Values
	entries := make([]PicklistEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, PicklistEntry{FullName: v.FullName, Label: v.Label, Default: v.Default})
	}
	return entries, nil
}

// UpdatePicklistValueSet replaces a picklist field's value set via
// updateMetadata on CustomField. The field keeps its label and type;
// only the value set changes.
func (c *Client) UpdatePicklistValueSet(ctx context.Context, object, field, label string, entries []PicklistEntry) error {
	if len(entries) == 0 {
		return &ValidationError{Message: "value set must not be empty"}
	}
	fullName := object + "." + field

	var b bytes.Buffer
	b.WriteString(`<met:updateMetadata>`)
	b.WriteString(`<met:metadata xsi:type="met:CustomField" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.WriteString(`<met:fullName>` + xmlEscape(fullName) + `</met:fullName>`)
	b.WriteString(`<met:label>` + xmlEscape(label) + `</met:label>`)
	b.WriteString(`<met:type>Picklist</met:type>`)
	b.WriteString(`<met:valueSet><met:valueSetDefinition><met:sorted>false</met:sorted>`)
	for _, e := range entries {
		b.WriteString(`<met:value>`)
		b.WriteString(`<met:fullName>` + xmlEscape(e.FullName) + `</met:fullName>`)
		b.WriteString(`<met:label>` + xmlEscape(e.Label) + `</met:label>`)
		b.WriteString(fmt.Sprintf(`<met:default>%t</met:default>`, e.Default))
		b.WriteString(`</met:value>`)
	}
	b.WriteString(`</met:valueSetDefinition></met:valueSet>`)
	b.WriteString(`</met:metadata></met:updateMetadata>`)

	respBody, err := c.soapCall(ctx, b.String())
	if err != nil {
		return err
	}

	var resp struct {
		Results []struct {
			FullName string `xml:"fullName"`
			Success  bool   `xml:"success"`
			Errors   []struct {
				StatusCode string `xml:"statusCode"`
				Message    string `xml:"message"`
			} `xml:"errors"`
		} `xml:"Body>updateMetadataResponse>result"`
	}
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("parsing updateMetadata response: %w", err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("updateMetadata returned no result for %s", fullName)
	}
	result := resp.Results[0]
	if !result.Success {
		if len(result.Errors) > 0 {
			return &APIError{ErrorCode: result.Errors[0].StatusCode, Message: result.Errors[0].Message}
		}
		return &APIError{Message: "updateMetadata failed for " + fullName}
	}
	return nil
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
