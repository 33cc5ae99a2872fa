package llm

import "strings"

const promptTemplate = `From the following calendar text, extract all events and organize them into structured data.
For each event, provide:
- Event title
- Event description (if available)
- Event date
- Event time
- Whether it is a repeating event, and what the repeating schedule is

Calendar text:
{{OCR_TEXT}}

Format your response as a valid JSON array of event objects. For example:
[
    {
        "title": "Team Meeting",
        "description": "Weekly status update",
        "date": "2023-04-15",
        "time": "10:00 AM - 11:00 AM",
        "repeating": true,
        "repeat_schedule": "Weekly on Tuesdays"
    },
    {
        "title": "Dentist Appointment",
        "description": "",
        "date": "2023-04-18",
        "time": "2:30 PM",
        "repeating": false,
        "repeat_schedule": ""
    }
]

Only respond with the JSON data, nothing else.`

// BuildPrompt creates the event extraction prompt for a block of OCR text.
// The text is embedded verbatim; an empty string is allowed.
func BuildPrompt(ocrText string) string {
	return strings.Replace(promptTemplate, "{{OCR_TEXT}}", ocrText, 1)
}
