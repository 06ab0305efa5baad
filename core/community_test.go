package core

import "testing"

func TestCommunity_NewSeedsTriggeringChannel(t *testing.T) {
	c := NewCommunity("g1", "c1", Defaults{Model: "gpt-4", SystemPrompt: "sys", ResponsePolicy: ResponsePolicy{Kind: RespondToEveryMessage}})
	if !c.IsActive("c1") || len(c.ActiveChannels) != 1 {
		t.Fatalf("expected only c1 active, got %v", c.ActiveChannels)
	}
	if c.Cooldown != 0 || len(c.ConversationLog) != 0 {
		t.Fatalf("expected empty log and no cooldown: %+v", c)
	}
	if c.Model != "gpt-4" || c.SystemPrompt != "sys" {
		t.Fatalf("defaults not applied: %+v", c)
	}

	empty := NewCommunity("g2", "", Defaults{})
	if len(empty.ActiveChannels) != 0 {
		t.Fatalf("expected no active channels, got %v", empty.ActiveChannels)
	}
}

func TestCommunity_ActivateDeactivate(t *testing.T) {
	c := NewCommunity("g1", "", Defaults{})
	if !c.Activate("c1") {
		t.Fatal("first activate should change membership")
	}
	if c.Activate("c1") {
		t.Fatal("second activate should be a no-op")
	}
	c.Activate("c2")
	if !c.Deactivate("c1") {
		t.Fatal("deactivate of active channel should change membership")
	}
	if c.Deactivate("c1") {
		t.Fatal("deactivate of inactive channel should be a no-op")
	}
	if c.IsActive("c1") || !c.IsActive("c2") {
		t.Fatalf("unexpected membership: %v", c.ActiveChannels)
	}
}

func TestCommunity_AppendDeduplicatesExternalIDs(t *testing.T) {
	c := NewCommunity("g1", "c1", Defaults{})
	if !c.Append("c1", Utterance{ExternalID: "m1", Speaker: "bertie", Text: "hi"}) {
		t.Fatal("first append should succeed")
	}
	if c.Append("c1", Utterance{ExternalID: "m1", Speaker: "bertie", Text: "hi again"}) {
		t.Fatal("duplicate external id should be dropped")
	}
	// relay-generated lines carry no id and are never deduplicated
	c.Append("c1", Utterance{Speaker: "Jeeves", Text: "Indeed, sir."})
	c.Append("c1", Utterance{Speaker: "Jeeves", Text: "Indeed, sir."})
	if got := len(c.Log("c1")); got != 3 {
		t.Fatalf("expected 3 utterances, got %d", got)
	}
	if !c.HasExternal("c1", "m1") || c.HasExternal("c1", "") || c.HasExternal("c2", "m1") {
		t.Fatal("HasExternal returned an unexpected result")
	}
}

func TestCommunity_ClearLogKeepsChannelEntry(t *testing.T) {
	c := NewCommunity("g1", "c1", Defaults{})
	c.Append("c1", Utterance{ExternalID: "m1", Speaker: "bertie", Text: "hi"})
	c.ClearLog("c1")
	log, ok := c.ConversationLog["c1"]
	if !ok || len(log) != 0 {
		t.Fatalf("expected emptied but present log, got %v (present=%v)", log, ok)
	}
}

func TestCommunity_CloneIsDeep(t *testing.T) {
	c := NewCommunity("g1", "c1", Defaults{})
	c.Append("c1", Utterance{ExternalID: "m1", Speaker: "bertie", Text: "hi"})
	c.UserFilter.Ignore = []string{"u1"}

	clone := c.Clone()
	clone.Activate("c2")
	clone.Append("c1", Utterance{ExternalID: "m2", Speaker: "bertie", Text: "more"})
	clone.UserFilter.Ignore[0] = "changed"

	if c.IsActive("c2") || len(c.Log("c1")) != 1 || c.UserFilter.Ignore[0] != "u1" {
		t.Fatalf("original mutated through clone: %+v", c)
	}
}

func TestFilter_ListenAndIgnore(t *testing.T) {
	f := Filter{Listen: []string{"r1"}, Ignore: []string{"r2"}}
	if !f.Listens("r0", "r1") || f.Listens("r3") {
		t.Fatal("Listens mismatch")
	}
	if !f.Ignores("r2") || f.Ignores() {
		t.Fatal("Ignores mismatch")
	}
}

func TestResponsePolicy_Valid(t *testing.T) {
	tests := []struct {
		policy ResponsePolicy
		valid  bool
	}{
		{ResponsePolicy{Kind: RespondOnMention}, true},
		{ResponsePolicy{Kind: RespondToEveryMessage}, true},
		{ResponsePolicy{Kind: RespondOnKeyword, Pattern: "tea"}, true},
		{ResponsePolicy{Kind: RespondOnKeyword}, false},
		{ResponsePolicy{Kind: "sometimes"}, false},
	}
	for _, tt := range tests {
		if got := tt.policy.Valid(); got != tt.valid {
			t.Errorf("Valid(%+v) = %v, want %v", tt.policy, got, tt.valid)
		}
	}
}

func TestSnapshot_EnsureCommunityCreatesOnce(t *testing.T) {
	s := EmptySnapshot()
	c, created := s.EnsureCommunity("g1", "c1", Defaults{Model: "gpt-4"})
	if !created || c.ID != "g1" {
		t.Fatalf("expected creation, got %+v created=%v", c, created)
	}
	c.Activate("c2")
	again, created := s.EnsureCommunity("g1", "c9", Defaults{})
	if created || again != c || again.IsActive("c9") {
		t.Fatal("second ensure must return the existing community untouched")
	}

	var zero Snapshot
	if _, created := zero.EnsureCommunity("g2", "c1", Defaults{}); !created {
		t.Fatal("ensure on zero snapshot should allocate the map")
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := EmptySnapshot()
	s.EnsureCommunity("g1", "c1", Defaults{})
	clone := s.Clone()
	c, _ := clone.Community("g1")
	c.Deactivate("c1")
	orig, _ := s.Community("g1")
	if !orig.IsActive("c1") {
		t.Fatal("snapshot clone shares community state")
	}
}
