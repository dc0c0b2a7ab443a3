package slotmon

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func loadDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestHasNoDatesMarker(t *testing.T) {
	messages := []string{
		"No date(s) available for appointment",
		"No Appointment slots available",
		"No date(s) available for current month",
		"Error in the application, please contact admin",
	}

	for _, message := range messages {
		doc := loadDoc(t, `<span id="plhMain_lblMsg">`+message+`</span>`)
		if !hasNoDatesMarker(doc) {
			t.Errorf("marker not detected for %q", message)
		}
	}

	doc := loadDoc(t, `<span id="plhMain_lblMsg">Select a date below</span>`)
	if hasNoDatesMarker(doc) {
		t.Error("marker detected on a calendar page")
	}

	if hasNoDatesMarker(loadDoc(t, `<div>no message span at all</div>`)) {
		t.Error("marker detected without the message span")
	}
}

func TestParseMonthName(t *testing.T) {
	doc := loadDoc(t, `
		<table id="plhMain_cldAppointment">
			<tr><td><a>&lt;&lt;</a></td><td>August 2026</td><td><a>&gt;&gt;</a></td></tr>
			<tr><td class="OpenDateAllocated"><a>14</a></td></tr>
		</table>`)

	if got := parseMonthName(doc); got != "August 2026" {
		t.Errorf("parseMonthName() = %q", got)
	}
}

func TestParseDayTimes(t *testing.T) {
	doc := loadDoc(t, `
		<table id="plhMain_gvSlot">
			<tr><th>Available time slots</th></tr>
			<tr><td>0930</td></tr>
			<tr><td>1000</td></tr>
			<tr><td>  </td></tr>
		</table>`)

	got := parseDayTimes(doc)
	if !reflect.DeepEqual(got, []string{"0930", "1000"}) {
		t.Errorf("parseDayTimes() = %v", got)
	}
}

func TestApplicantWithDefaults(t *testing.T) {
	applicant := Applicant{GivenName: "IVAN"}.withDefaults()

	if applicant.GivenName != "IVAN" {
		t.Errorf("explicit value replaced: %q", applicant.GivenName)
	}
	if applicant.Surname == "" || applicant.Email == "" {
		t.Errorf("empty fields not filled: %+v", applicant)
	}
	if len(applicant.ContactNumber) != 11 || !strings.HasPrefix(applicant.ContactNumber, "7917") {
		t.Errorf("contact number = %q", applicant.ContactNumber)
	}
}
