package drive

import "testing"

func TestExtractFolderID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1AbC_dEf-123", "1AbC_dEf-123"},
		{"https://drive.google.com/drive/folders/1AbC_dEf-123", "1AbC_dEf-123"},
		{"https://drive.google.com/drive/folders/1AbC_dEf-123?usp=sharing", "1AbC_dEf-123"},
		{"https://drive.google.com/drive/u/0/folders/1AbC_dEf-123/", "1AbC_dEf-123"},
		{"https://drive.google.com/open?id=1AbC_dEf-123", "1AbC_dEf-123"},
		{"  1AbC_dEf-123  ", "1AbC_dEf-123"},
	}

	for _, tc := range cases {
		if got := ExtractFolderID(tc.in); got != tc.want {
			t.Fatalf("ExtractFolderID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
