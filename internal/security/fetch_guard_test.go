package security

import (
	"strings"
	"testing"
	"time"
)

// TestValidateURL は各種URLの事前検証を検証する。
func TestValidateURL(t *testing.T) {
	guard := NewFetchGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "通常のHTTPS URLは許可される",
			url:     "https://blog.example.org/wp-content/uploads/photo.jpg",
			wantErr: false,
		},
		{
			name:    "通常のHTTP URLは許可される",
			url:     "http://blog.example.org/image.png",
			wantErr: false,
		},
		{
			name:    "空のURLは拒否される",
			url:     "",
			wantErr: true,
		},
		{
			name:    "ftpスキームは拒否される",
			url:     "ftp://example.org/file.pdf",
			wantErr: true,
		},
		{
			name:    "プライベートIPは拒否される",
			url:     "http://192.168.1.10/photo.jpg",
			wantErr: true,
		},
		{
			name:    "ループバックIPは拒否される",
			url:     "http://127.0.0.1/photo.jpg",
			wantErr: true,
		},
		{
			name:    "メタデータIPは拒否される",
			url:     "http://169.254.169.254/latest/meta-data/",
			wantErr: true,
		},
		{
			name:    "localhostは拒否される",
			url:     "http://localhost/photo.jpg",
			wantErr: true,
		},
		{
			name:    "ホストなしは拒否される",
			url:     "https:///path-only",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr = %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestNewSafeClient はクライアント生成とタイムアウト設定を検証する。
func TestNewSafeClient(t *testing.T) {
	guard := NewFetchGuard()

	client := guard.NewSafeClient(10*time.Second, 1024)
	if client == nil {
		t.Fatal("client is nil")
	}

	// プライベートIPへのリクエストはDialerレベルでブロックされる
	_, err := client.Get("http://127.0.0.1:80/")
	if err == nil {
		t.Fatal("ループバックへのリクエストがブロックされなかった")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "ip") &&
		!strings.Contains(strings.ToLower(err.Error()), "refused") &&
		!strings.Contains(strings.ToLower(err.Error()), "block") {
		t.Logf("エラー内容: %v", err)
	}
}
