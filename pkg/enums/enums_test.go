package enums

import "testing"

func TestParsePublishKind(t *testing.T) {
	kind, err := ParsePublishKind("shorts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != PublishKindShorts {
		t.Fatalf("expected shorts, got %s", kind)
	}
	if _, err := ParsePublishKind("Shorts"); err == nil {
		t.Fatal("expected case-sensitive parse to fail")
	}
}

func TestEnumValidity(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"account wallet", AccountTypeWallet.IsValid()},
		{"stream live", StreamTypeLive.IsValid()},
		{"broadcast webcam", BroadcastTypeWebcam.IsValid()},
		{"comment reply", CommentTypeComment.IsValid()},
		{"notification follow", NotificationTypeFollow.IsValid()},
		{"report spam", ReportReasonSpam.IsValid()},
		{"order popular", PublishOrderByPopular.IsValid()},
		{"comments counts", CommentsOrderByCounts.IsValid()},
		{"playlist oldest", PlaylistOrderByOldest.IsValid()},
		{"event tip", EventTipSent.IsValid()},
	}
	for _, tc := range cases {
		if !tc.valid {
			t.Fatalf("%s should be valid", tc.name)
		}
	}
	if Visibility("hidden").IsValid() {
		t.Fatal("unknown visibility should be invalid")
	}
	if _, err := ParseAccountType("traditional"); err == nil {
		t.Fatal("account types are upper case")
	}
}

func TestParseNamesTheKind(t *testing.T) {
	_, err := ParseCommentsOrderBy("oldest")
	if err == nil || err.Error() != `invalid comments order "oldest"` {
		t.Fatalf("unexpected error %v", err)
	}
}
