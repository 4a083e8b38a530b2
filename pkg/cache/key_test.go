package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "item key",
			key:  ItemKey(7),
			want: "ITEM_CACHE_KEY_7",
		},
		{
			name: "lock key",
			key:  LockKey(7),
			want: "UPDATE_ITEM_CACHE_LOCK_KEY_7",
		},
		{
			name: "large id",
			key:  ItemKey(9007199254740993),
			want: "ITEM_CACHE_KEY_9007199254740993",
		},
		{
			name: "negative id",
			key:  ItemKey(-1),
			want: "ITEM_CACHE_KEY_-1",
		},
		{
			name: "custom prefix",
			key:  Key{Prefix: "staging:item:", ItemID: 12},
			want: "staging:item:12",
		},
		{
			name: "empty prefix",
			key:  Key{ItemID: 3},
			want: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_ItemAndLockDiffer(t *testing.T) {
	if ItemKey(1).String() == LockKey(1).String() {
		t.Error("item key and lock key must not collide")
	}
}
