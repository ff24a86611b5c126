package kafka

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseUploadEvents(t *testing.T) {
	c := qt.New(t)

	t.Run("minio notification", func(t *testing.T) {
		payload := []byte(`{
			"Records": [
				{
					"s3": {
						"bucket": {"name": "gallery-uploads"},
						"object": {
							"key": "photos%2Fopening+keynote.jpg",
							"size": 123456,
							"contentType": "image/jpeg",
							"userMetadata": {"X-Amz-Meta-Optimized": "true"}
						}
					}
				}
			]
		}`)

		events, err := parseUploadEvents(payload)
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 1)

		event := events[0]
		c.Assert(event.Bucket, qt.Equals, "gallery-uploads")
		c.Assert(event.Key, qt.Equals, "photos/opening keynote.jpg")
		c.Assert(event.Size, qt.Equals, int64(123456))
		c.Assert(event.ContentType, qt.Equals, "image/jpeg")
		c.Assert(event.Metadata, qt.DeepEquals, map[string]string{"optimized": "true"})
		c.Assert(event.Optimized(), qt.IsTrue)
	})

	t.Run("multiple records", func(t *testing.T) {
		payload := []byte(`{
			"Records": [
				{"s3": {"bucket": {"name": "b"}, "object": {"key": "one.jpg", "size": 1}}},
				{"s3": {"bucket": {"name": "b"}, "object": {"key": "two.png", "size": 2}}}
			]
		}`)

		events, err := parseUploadEvents(payload)
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 2)
		c.Assert(events[0].Key, qt.Equals, "one.jpg")
		c.Assert(events[1].Key, qt.Equals, "two.png")
	})

	t.Run("no metadata", func(t *testing.T) {
		payload := []byte(`{"Records": [{"s3": {"bucket": {"name": "b"}, "object": {"key": "plain.jpg"}}}]}`)

		events, err := parseUploadEvents(payload)
		c.Assert(err, qt.IsNil)
		c.Assert(events[0].Metadata, qt.IsNil)
		c.Assert(events[0].Optimized(), qt.IsFalse)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := parseUploadEvents([]byte("not json"))
		c.Assert(err, qt.IsNotNil)
	})

	t.Run("empty records", func(t *testing.T) {
		events, err := parseUploadEvents([]byte(`{"Records": []}`))
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 0)
	})
}
