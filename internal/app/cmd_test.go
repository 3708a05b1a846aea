package app

import (
	"testing"

	"github.com/migcontrol/website/internal/model"
)

func TestParseCommand_DefaultsToServe(t *testing.T) {
	cmd := ParseCommand([]string{})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_Import(t *testing.T) {
	cmd := ParseCommand([]string{"import", "export.xml", "blog"})
	if cmd != CommandImport {
		t.Errorf("ParseCommand([import ...]) = %q, want %q", cmd, CommandImport)
	}
}

func TestParseCommand_ImportMedia(t *testing.T) {
	cmd := ParseCommand([]string{"import-media", "export.xml"})
	if cmd != CommandImportMedia {
		t.Errorf("ParseCommand([import-media ...]) = %q, want %q", cmd, CommandImportMedia)
	}
}

func TestParseCommand_Migrate(t *testing.T) {
	cmd := ParseCommand([]string{"migrate"})
	if cmd != CommandMigrate {
		t.Errorf("ParseCommand([migrate]) = %q, want %q", cmd, CommandMigrate)
	}
}

func TestParseCommand_UnknownDefaultsToServe(t *testing.T) {
	cmd := ParseCommand([]string{"unknown"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([unknown]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseImportOptions_Full(t *testing.T) {
	opts, err := ParseImportOptions([]string{
		"--page-type", "archive_page",
		"--use-locale",
		"--wp-base-url", "https://example.org",
		"--create-other-locales",
		"--atomic",
		"export.xml", "archiv",
	})
	if err != nil {
		t.Fatalf("ParseImportOptions() error = %v", err)
	}

	if opts.XMLPath != "export.xml" {
		t.Errorf("XMLPath = %q, want %q", opts.XMLPath, "export.xml")
	}
	if opts.IndexSlug != "archiv" {
		t.Errorf("IndexSlug = %q, want %q", opts.IndexSlug, "archiv")
	}
	if opts.PageType != model.PageTypeArchivePage {
		t.Errorf("PageType = %q, want %q", opts.PageType, model.PageTypeArchivePage)
	}
	if !opts.UseLocale {
		t.Error("UseLocale = false, want true")
	}
	if !opts.CreateOtherLocales {
		t.Error("CreateOtherLocales = false, want true")
	}
	if !opts.Atomic {
		t.Error("Atomic = false, want true")
	}
	if opts.WpBaseURL != "https://example.org" {
		t.Errorf("WpBaseURL = %q, want %q", opts.WpBaseURL, "https://example.org")
	}
}

func TestParseImportOptions_Defaults(t *testing.T) {
	opts, err := ParseImportOptions([]string{"--wp-base-url", "https://example.org", "export.xml", "blog"})
	if err != nil {
		t.Fatalf("ParseImportOptions() error = %v", err)
	}

	if opts.PageType != model.PageTypeBlogPage {
		t.Errorf("PageType = %q, want %q", opts.PageType, model.PageTypeBlogPage)
	}
	if opts.UseLocale || opts.CreateOtherLocales || opts.Atomic {
		t.Error("ブールフラグの既定値はfalseでなければならない")
	}
}

func TestParseImportOptions_MissingArgs(t *testing.T) {
	if _, err := ParseImportOptions([]string{"--wp-base-url", "https://example.org", "export.xml"}); err == nil {
		t.Error("インデックスslugがない場合はエラーを返すべき")
	}
}

func TestParseImportOptions_UnsupportedPageType(t *testing.T) {
	_, err := ParseImportOptions([]string{
		"--page-type", "location_page",
		"--wp-base-url", "https://example.org",
		"export.xml", "blog",
	})
	if err == nil {
		t.Error("拠点ページ種別は直接インポートできないためエラーを返すべき")
	}
}

func TestParseImportOptions_MissingBaseURL(t *testing.T) {
	if _, err := ParseImportOptions([]string{"export.xml", "blog"}); err == nil {
		t.Error("--wp-base-urlがない場合はエラーを返すべき")
	}
}

func TestParseMediaOptions(t *testing.T) {
	opts, err := ParseMediaOptions([]string{"--wp-base-url", "https://example.org", "export.xml"})
	if err != nil {
		t.Fatalf("ParseMediaOptions() error = %v", err)
	}
	if opts.XMLPath != "export.xml" {
		t.Errorf("XMLPath = %q, want %q", opts.XMLPath, "export.xml")
	}
}

func TestParseMediaOptions_MissingArgs(t *testing.T) {
	if _, err := ParseMediaOptions([]string{"--wp-base-url", "https://example.org"}); err == nil {
		t.Error("XMLパスがない場合はエラーを返すべき")
	}
}
