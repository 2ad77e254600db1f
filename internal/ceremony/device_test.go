package ceremony

import "testing"

func TestDeviceName(t *testing.T) {
	tests := []struct {
		name  string
		agent string
		want  string
	}{
		{
			name:  "desktop chrome",
			agent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want:  "Mac OS X Chrome",
		},
		{
			name:  "android phone",
			agent: "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			want:  "Pixel 8 Android Chrome",
		},
		{
			name:  "empty agent",
			agent: "",
			want:  "unknown device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeviceName(tt.agent); got != tt.want {
				t.Errorf("DeviceName() = %q, want %q", got, tt.want)
			}
		})
	}
}
