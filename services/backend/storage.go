package backend

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core/enroll"
)

var _ enroll.Storage = (*Client)(nil)

// UploadFaceImage stores one frame in remote face-image storage, carrying
// frame dimensions and the detected bounding box alongside the file.
func (c *Client) UploadFaceImage(ctx context.Context, studentID string, in enroll.UploadInput) (enroll.Uploaded, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", in.FileName)
	if err != nil {
		return enroll.Uploaded{}, errors.Wrap(err, "building upload form")
	}
	if _, err = fw.Write(in.Data); err != nil {
		return enroll.Uploaded{}, errors.Wrap(err, "writing upload form")
	}
	fields := map[string]string{
		"frameWidth":  strconv.Itoa(in.Width),
		"frameHeight": strconv.Itoa(in.Height),
		"bboxX":       strconv.Itoa(in.Box.X),
		"bboxY":       strconv.Itoa(in.Box.Y),
		"bboxWidth":   strconv.Itoa(in.Box.Width),
		"bboxHeight":  strconv.Itoa(in.Box.Height),
	}
	for k, v := range fields {
		if err = w.WriteField(k, v); err != nil {
			return enroll.Uploaded{}, errors.Wrap(err, "writing upload form")
		}
	}
	if err = w.Close(); err != nil {
		return enroll.Uploaded{}, errors.Wrap(err, "closing upload form")
	}

	path := "/storage/face-images/" + url.PathEscape(studentID) + "?upsert=true"
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return enroll.Uploaded{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out uploadedJSON
	if err = c.roundTrip(req, &out); err != nil {
		return enroll.Uploaded{}, err
	}
	return out.canonical(), nil
}

// DeleteFaceImage removes one stored face image.
func (c *Client) DeleteFaceImage(ctx context.Context, studentID, fileName string) error {
	path := "/storage/face-images/" + url.PathEscape(studentID)
	if fileName != "" {
		path += "?fileName=" + url.QueryEscape(fileName)
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// DeleteAllFaceImages removes every stored face image for the student.
func (c *Client) DeleteAllFaceImages(ctx context.Context, studentID string) error {
	return c.DeleteFaceImage(ctx, studentID, "")
}
