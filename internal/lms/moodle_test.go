package lms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const courseContentsJSON = `[
  {
    "id": 1,
    "name": "General",
    "modules": [
      {
        "id": 10,
        "name": "Syllabus",
        "modname": "resource",
        "contents": [
          {"type": "file", "filename": "syllabus.pdf", "fileurl": "URL/webservice/pluginfile.php/1/syllabus.pdf", "timemodified": 1700000000, "filesize": 2048}
        ]
      },
      {
        "id": 11,
        "name": "Forum",
        "modname": "forum",
        "contents": []
      }
    ]
  },
  {
    "id": 2,
    "name": "Unit 1",
    "modules": [
      {
        "id": 12,
        "name": "Notes",
        "modname": "resource",
        "contents": [
          {"type": "file", "filename": "notes.docx", "fileurl": "URL/webservice/pluginfile.php/2/notes.docx", "timemodified": 1700000100, "filesize": 1024},
          {"type": "url", "filename": "link", "fileurl": "http://example.com", "timemodified": 1700000200}
        ]
      }
    ]
  }
]`

func TestListFiles(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webservice/rest/server.php" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("wstoken") != "secret" {
			t.Errorf("missing wstoken, got %q", q.Get("wstoken"))
		}
		if q.Get("wsfunction") != "core_course_get_contents" {
			t.Errorf("unexpected wsfunction: %s", q.Get("wsfunction"))
		}
		if q.Get("courseid") != "42" {
			t.Errorf("unexpected courseid: %s", q.Get("courseid"))
		}
		w.Write([]byte(courseContentsJSON))
	}))
	defer srv.Close()

	client := NewMoodleClient(srv.URL, "secret")
	files, err := client.ListFiles(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListFiles error: %v", err)
	}

	// Only the two "file" contents count; the url content is skipped.
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Filename != "syllabus.pdf" || files[0].TimeModified != 1700000000 {
		t.Errorf("unexpected first file: %+v", files[0])
	}
	if files[1].Filename != "notes.docx" {
		t.Errorf("unexpected second file: %+v", files[1])
	}
	for _, f := range files {
		if f.CourseID != 42 {
			t.Errorf("course id not propagated: %+v", f)
		}
	}
}

func TestListFilesMoodleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exception":"webservice_access_exception","errorcode":"accessexception","message":"Access control exception"}`))
	}))
	defer srv.Close()

	client := NewMoodleClient(srv.URL, "bad-token")
	if _, err := client.ListFiles(context.Background(), 1); err == nil {
		t.Fatal("expected error from moodle error envelope")
	}
}

func TestDownloadAppendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			t.Errorf("token not appended, query: %s", r.URL.RawQuery)
		}
		w.Write([]byte("file-bytes"))
	}))
	defer srv.Close()

	client := NewMoodleClient(srv.URL, "secret")
	data, err := client.Download(context.Background(), srv.URL+"/webservice/pluginfile.php/1/syllabus.pdf")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != "file-bytes" {
		t.Fatalf("unexpected body: %q", data)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewMoodleClient(srv.URL, "secret")
	if _, err := client.Download(context.Background(), srv.URL+"/missing.pdf"); err == nil {
		t.Fatal("expected error for 404")
	}
}
