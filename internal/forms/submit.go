package forms

import (
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/metrics"
)

var logger = loggo.GetLogger("ticketbari.forms")

const UploadFailedMessage = "Image upload failed"

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Image is a file attached to a form.
type Image struct {
	Name string
	Body io.Reader
}

type Submission struct {
	Name     string
	Image    *Image
	Mutate   func(ctx context.Context, imageURL string) error
	Success  string
	Fallback string
}

// Outcome is the notification for a submission. A failed outcome keeps
// the form open with its values.
type Outcome struct {
	Err     error
	Message string
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Submitter struct {
	uploader Uploader
}

func NewSubmitter(uploader Uploader) *Submitter {
	return &Submitter{uploader: uploader}
}

// Submit uploads the attached image, if any, then runs the one mutation.
func (s *Submitter) Submit(ctx context.Context, sub Submission) Outcome {
	var imageURL string
	if sub.Image != nil {
		link, err := s.uploader.Upload(ctx, sub.Image.Name, sub.Image.Body)
		if err != nil {
			logger.Errorf("%s: uploading image: %v", sub.Name, err)
			metrics.Mutation(sub.Name, err)
			return Outcome{Err: errors.Annotate(err, "uploading image"), Message: UploadFailedMessage}
		}
		imageURL = link
	}

	err := sub.Mutate(ctx, imageURL)
	metrics.Mutation(sub.Name, err)
	if err != nil {
		logger.Warningf("%s: %v", sub.Name, err)
		return Outcome{Err: err, Message: backend.ServerMessage(err, sub.Fallback)}
	}
	return Outcome{Message: sub.Success}
}
