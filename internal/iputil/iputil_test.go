package iputil

import "testing"

func TestIsLoopback(t *testing.T) {
	for _, addr := range []string{"127.0.0.1", "::1", "localhost"} {
		if !IsLoopback(addr) {
			t.Errorf("IsLoopback(%q) = false, want true", addr)
		}
	}
	for _, addr := range []string{"8.8.8.8", "192.168.1.4", "", "not-an-ip"} {
		if IsLoopback(addr) {
			t.Errorf("IsLoopback(%q) = true, want false", addr)
		}
	}
}

func TestIsLoopbackOrPrivate(t *testing.T) {
	private := []string{
		"127.0.0.1", "::1", "localhost",
		"10.0.0.1", "192.168.0.10",
		"172.16.0.1", "172.31.255.255",
		"fd12:3456::1",
	}
	for _, addr := range private {
		if !IsLoopbackOrPrivate(addr) {
			t.Errorf("IsLoopbackOrPrivate(%q) = false, want true", addr)
		}
	}

	public := []string{"8.8.8.8", "172.32.0.1", "2001:4860:4860::8888", "", "garbage"}
	for _, addr := range public {
		if IsLoopbackOrPrivate(addr) {
			t.Errorf("IsLoopbackOrPrivate(%q) = true, want false", addr)
		}
	}
}

func TestIsRoutable(t *testing.T) {
	if !IsRoutable("93.184.216.34") {
		t.Error("public v4 address should be routable")
	}
	if !IsRoutable("2001:4860:4860::8888") {
		t.Error("public v6 address should be routable")
	}
	for _, addr := range []string{"127.0.0.1", "::1", "10.1.2.3", "0.0.0.0", "169.254.0.5", "", "localhost"} {
		if IsRoutable(addr) {
			t.Errorf("IsRoutable(%q) = true, want false", addr)
		}
	}
}
