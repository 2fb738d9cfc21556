package sourcing

import "testing"

func TestCanSelfTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCancelled, true},
		{StatusQuoted, StatusAccepted, true},
		{StatusQuoted, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusCancelled, StatusCancelled, true}, // 重复取消幂等
		{StatusCompleted, StatusCancelled, false},
		{StatusPending, StatusAccepted, false},
		{StatusAccepted, StatusAccepted, false}, // 重复接受报价
		{StatusPending, StatusQuoted, false},    // 报价只能走运营通道
		{Status("BOGUS"), StatusCancelled, false},
	}
	for _, c := range cases {
		if got := CanSelfTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanSelfTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestEditable(t *testing.T) {
	editable := []Status{StatusPending, StatusCancelled}
	frozen := []Status{StatusQuoted, StatusAccepted, StatusCompleted}

	for _, s := range editable {
		if !Editable(s) {
			t.Fatalf("expected %s editable", s)
		}
	}
	for _, s := range frozen {
		if Editable(s) {
			t.Fatalf("expected %s not editable", s)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusQuoted, StatusAccepted, StatusCancelled, StatusCompleted} {
		if !ValidStatus(s) {
			t.Fatalf("expected %s valid", s)
		}
	}
	if ValidStatus(Status("SHIPPED")) {
		t.Fatalf("expected SHIPPED invalid")
	}
}
