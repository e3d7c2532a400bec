package recipe

import "errors"

// Sentinel errors for the stages of the extraction pipeline. Stage
// implementations wrap these with fmt.Errorf("...: %w", Err...) so the
// coordinator can map any failure to exactly one user-facing message.
var (
	// ErrInvalidLink means the submitted URL is not a recognizable video link.
	ErrInvalidLink = errors.New("invalid video link")
	// ErrTranscriptUnavailable means captions are disabled, missing, or the
	// video does not exist. Transport faults surface as this too; the
	// transcript fetch is a single attempt with no retry.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrNotCookingContent means the model judged the transcript not to be a
	// recipe, either via the explicit sentinel or by omitting required fields.
	ErrNotCookingContent = errors.New("not cooking content")
	// ErrMalformedResponse means the completion response could not be parsed
	// as the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed completion response")
	// ErrSinkWrite means the output sink rejected the write.
	ErrSinkWrite = errors.New("sink write failed")
	// ErrUnauthorized means the requester is not on the allow-list.
	ErrUnauthorized = errors.New("unauthorized requester")
)

// User-facing messages, one per taxonomy entry. Raw service errors are never
// surfaced in chat.
const (
	msgInvalidLink           = "That doesn't look like a YouTube link I recognize. Send a watch, youtu.be, or shorts URL."
	msgTranscriptUnavailable = "Couldn't get the video transcript. Make sure the video exists and has captions enabled."
	msgNotCookingContent     = "That video doesn't look like a cooking video, so there's no recipe to extract."
	msgMalformedResponse     = "The recipe service returned something I couldn't read. Try again in a bit."
	msgSinkWrite             = "The recipe was generated but saving it failed. Try again in a bit."
	msgUnauthorized          = "Sorry, you are not authorized to use this bot."
	msgGeneric               = "Something went wrong while processing that video."
)

// UserMessage maps a pipeline error to the single chat message shown to the
// requester. Unknown errors map to a generic message.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, ErrInvalidLink):
		return msgInvalidLink
	case errors.Is(err, ErrTranscriptUnavailable):
		return msgTranscriptUnavailable
	case errors.Is(err, ErrNotCookingContent):
		return msgNotCookingContent
	case errors.Is(err, ErrMalformedResponse):
		return msgMalformedResponse
	case errors.Is(err, ErrSinkWrite):
		return msgSinkWrite
	default:
		return msgGeneric
	}
}
