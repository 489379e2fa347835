package addrutil

import "testing"

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"localhost:9091":         "http://localhost:9091",
		"http://localhost:9091":  "http://localhost:9091",
		"https://gw.example:443": "https://gw.example:443",
		" gw:9091 ":              "http://gw:9091",
	}
	for in, want := range cases {
		if got := NormalizeBaseURL(in); got != want {
			t.Fatalf("NormalizeBaseURL(%q)=%q want %q", in, got, want)
		}
	}
}

func TestHost_IPv4HostPort(t *testing.T) {
	t.Parallel()

	if got := Host("39.119.108.243:33134"); got != "39.119.108.243" {
		t.Fatalf("host=%q", got)
	}
}

func TestHost_BracketedIPv6(t *testing.T) {
	t.Parallel()

	if got := Host("[2001:db8::1]:51820"); got != "2001:db8::1" {
		t.Fatalf("host=%q", got)
	}
}

func TestHost_UnbracketedIPv6HostPort(t *testing.T) {
	t.Parallel()

	if got := Host("2001:db8::1:51820"); got != "2001:db8::1:51820" {
		t.Fatalf("host=%q", got)
	}
	if got := Host("fe80::1%eth0:51820"); got != "fe80::1%eth0" {
		t.Fatalf("host=%q", got)
	}
}

func TestHost_NoPort(t *testing.T) {
	t.Parallel()

	if got := Host("gw.example"); got != "gw.example" {
		t.Fatalf("host=%q", got)
	}
	if got := Host(""); got != "" {
		t.Fatalf("host=%q", got)
	}
}
