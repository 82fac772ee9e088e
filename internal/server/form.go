package server

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/interview-coach/internal/document"
	"github.com/spigell/interview-coach/internal/interview"
)

var setupFields = []string{"company", "designation", "round", "job_description"}

// decodeSetup maps the start form values onto interview.Setup. Empty values
// are left out so unselected fields keep their zero value.
func decodeSetup(values url.Values) (interview.Setup, error) {
	raw := make(map[string]interface{}, len(setupFields))
	for _, key := range setupFields {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			raw[key] = v
		}
	}

	var setup interview.Setup
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
		Result:     &setup,
	})
	if err != nil {
		return setup, err
	}

	if err := decoder.Decode(raw); err != nil {
		return setup, fmt.Errorf("decoding interview setup: %w", err)
	}

	setup.JobDescription = document.ParseJobDescription(setup.JobDescription)

	return setup, nil
}

// readResume extracts the uploaded resume. A missing upload yields an empty
// resume, which the interview service refuses.
func readResume(form *multipart.Form) (string, error) {
	if form == nil || len(form.File["resume"]) == 0 {
		return "", nil
	}

	header := form.File["resume"][0]
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("opening uploaded resume: %w", err)
	}
	defer f.Close()

	return document.ExtractResume(header.Filename, f)
}
