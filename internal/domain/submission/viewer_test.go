package submission

import (
	"testing"

	"github.com/google/uuid"

	"github.com/medform/medform/internal/domain/forms"
)

func viewerForm() *forms.Form {
	form := &forms.Form{ID: uuid.New(), DoctorID: uuid.New(), Title: "Intake"}
	form.Fields = []*forms.FormField{
		{ID: uuid.New(), Type: "text", Label: "Full Name"},
		{ID: uuid.New(), Type: "checkbox", Label: "Symptoms", Options: []string{"Fever", "Cough"}},
		{ID: uuid.New(), Type: "date", Label: "Date of Birth"},
		{ID: uuid.New(), Type: "file", Label: "Insurance Card"},
	}
	return form
}

func TestBuildViewFullSubmission(t *testing.T) {
	form := viewerForm()
	sub := &Submission{
		FormID: form.ID,
		Responses: ResponseSet{
			form.Fields[0].ID: TextValue("Jane Roe"),
			form.Fields[1].ID: MultiValue([]string{"Fever", "Cough"}),
			form.Fields[2].ID: TextValue("1990-06-15"),
		},
		Attachments: []Attachment{
			{FieldID: form.Fields[3].ID, FileName: "card.pdf", URL: "http://x/blobs/card.pdf"},
		},
	}

	answers := BuildView(form, sub)
	if len(answers) != 4 {
		t.Fatalf("answers = %d, want 4", len(answers))
	}

	if answers[0].Kind != AnswerText || answers[0].Text != "Jane Roe" {
		t.Errorf("text answer = %+v", answers[0])
	}
	if answers[1].Kind != AnswerBadges || len(answers[1].Badges) != 2 {
		t.Errorf("badge answer = %+v", answers[1])
	}
	if answers[2].Kind != AnswerText || answers[2].Text != "June 15, 1990" {
		t.Errorf("date answer = %+v", answers[2])
	}
	if answers[3].Kind != AnswerFiles || len(answers[3].Files) != 1 {
		t.Errorf("file answer = %+v", answers[3])
	}
}

func TestBuildViewNoResponse(t *testing.T) {
	form := viewerForm()
	sub := &Submission{FormID: form.ID, Responses: ResponseSet{}}

	answers := BuildView(form, sub)
	for i, a := range answers {
		if a.Kind != AnswerNone || a.Text != NoResponse {
			t.Errorf("answer %d = %+v, want no response", i, a)
		}
	}
}

func TestBuildViewFalseIsAnAnswer(t *testing.T) {
	form := &forms.Form{ID: uuid.New()}
	consent := &forms.FormField{ID: uuid.New(), Type: "checkbox", Label: "Consent"}
	form.Fields = []*forms.FormField{consent}
	sub := &Submission{Responses: ResponseSet{consent.ID: BoolValue(false)}}

	answers := BuildView(form, sub)
	if answers[0].Kind != AnswerBool || answers[0].Text != "No" {
		t.Errorf("explicit false rendered as %+v, want No", answers[0])
	}
}

func TestBuildViewZeroTextIsAnAnswer(t *testing.T) {
	form := &forms.Form{ID: uuid.New()}
	field := &forms.FormField{ID: uuid.New(), Type: "number", Label: "Prior Visits"}
	form.Fields = []*forms.FormField{field}
	sub := &Submission{Responses: ResponseSet{field.ID: TextValue("0")}}

	answers := BuildView(form, sub)
	if answers[0].Kind != AnswerText || answers[0].Text != "0" {
		t.Errorf("answer = %+v, want text 0", answers[0])
	}
}

func TestBuildViewUnparseableDatePassesThrough(t *testing.T) {
	form := &forms.Form{ID: uuid.New()}
	field := &forms.FormField{ID: uuid.New(), Type: "date", Label: "Date"}
	form.Fields = []*forms.FormField{field}
	sub := &Submission{Responses: ResponseSet{field.ID: TextValue("sometime in June")}}

	answers := BuildView(form, sub)
	if answers[0].Text != "sometime in June" {
		t.Errorf("answer = %q", answers[0].Text)
	}
}

func TestBuildViewAttachmentsMatchedByField(t *testing.T) {
	form := viewerForm()
	other := uuid.New()
	sub := &Submission{
		Responses: ResponseSet{},
		Attachments: []Attachment{
			{FieldID: other, FileName: "stray.pdf"},
		},
	}

	answers := BuildView(form, sub)
	fileAnswer := answers[3]
	if fileAnswer.Kind != AnswerNone {
		t.Errorf("stray attachment matched to wrong field: %+v", fileAnswer)
	}
}
