package domain

// MessageTemplate is the campaign message read from a sheet's template
// tab. When Interactive is set the campaign sends button messages;
// otherwise Text drives a plain text send.
type MessageTemplate struct {
	// Text is the simple text template with {ClientName}, {ServiceName}
	// and {BusinessName} placeholders.
	Text string

	// Interactive, when non-nil, replaces the text send with an
	// interactive button message. Placeholders apply to its header,
	// body and footer; button titles and ids are sent verbatim.
	Interactive *InteractiveMessage
}

// InteractiveMessage is a WhatsApp button message: an optional header
// and footer around a required body, plus up to three reply buttons.
type InteractiveMessage struct {
	Header string
	Body   string
	Footer string

	Buttons []MessageButton
}

// MessageButton is one quick-reply button. The ID comes back in the
// recipient's reply webhook when the button is tapped.
type MessageButton struct {
	Title string
	ID    string
}
