package auth

import "testing"

func TestGuardOpenModeAcceptsAnything(t *testing.T) {
	g := NewGuard(NoSecret)
	cases := []Credential{None(), FromHeader([]string{""}), FromPath("whatever"), FromHeader([]string{"a", "b"})}
	for _, cred := range cases {
		if !g.Check(cred) {
			t.Fatalf("open 模式应放行 %+v", cred)
		}
	}
	if g.Mode() != "open" {
		t.Fatalf("expected open mode, got %s", g.Mode())
	}
}

func TestGuardSecretRequiresExactMatch(t *testing.T) {
	g := NewGuard(StaticSecret("s3cret"))
	testCases := []struct {
		name string
		cred Credential
		want bool
	}{
		{"header exact", FromHeader([]string{"s3cret"}), true},
		{"path exact", FromPath("s3cret"), true},
		{"missing", None(), false},
		{"empty", FromHeader([]string{""}), false},
		{"case differs", FromPath("S3cret"), false},
		{"prefix", FromPath("s3cret2"), false},
		{"duplicate headers", FromHeader([]string{"s3cret", "s3cret"}), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Check(tc.cred); got != tc.want {
				t.Fatalf("Check(%+v) = %v, want %v", tc.cred, got, tc.want)
			}
		})
	}
	if g.Mode() != "secured" {
		t.Fatalf("expected secured mode, got %s", g.Mode())
	}
}

func TestEnvSecretReadsOnEveryCall(t *testing.T) {
	const name = "MITM_CACHE_TEST_SECRET"
	t.Setenv(name, "first")
	g := NewGuard(EnvSecret(name))

	if !g.Check(FromPath("first")) {
		t.Fatalf("expected first secret to validate")
	}
	t.Setenv(name, "second")
	if g.Check(FromPath("first")) {
		t.Fatalf("密钥变更后旧值不应通过")
	}
	if !g.Check(FromPath("second")) {
		t.Fatalf("expected updated secret to validate")
	}
}

func TestEnvSecretEmptyValueIsConfigured(t *testing.T) {
	const name = "MITM_CACHE_TEST_EMPTY"
	t.Setenv(name, "")
	g := NewGuard(EnvSecret(name))
	if g.Open() {
		t.Fatalf("空字符串密钥仍视为已配置")
	}
	if g.Check(None()) {
		t.Fatalf("缺失凭证不应通过")
	}
	if !g.Check(FromHeader([]string{""})) {
		t.Fatalf("空凭证应与空密钥匹配")
	}
}

func TestFromHeaderResolution(t *testing.T) {
	if FromHeader(nil).Present() {
		t.Fatalf("no header values should resolve to none")
	}
	cred := FromHeader([]string{"k"})
	if !cred.Present() || cred.Source != SourceHeader || cred.Value != "k" {
		t.Fatalf("unexpected credential %+v", cred)
	}
}
