package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomStore_History_Keeps_Last_Capacity_Messages(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(DefaultHistoryCapacity)

	for i := range 150 {
		s.Append("general", Message{Room: "general", Text: fmt.Sprintf("m%d", i)})
	}

	history := s.History("general")
	req.Len(history, DefaultHistoryCapacity)
	for i, msg := range history {
		req.Equal(fmt.Sprintf("m%d", i+50), msg.Text)
	}
}

func TestRoomStore_Append_Creates_Room(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(0)

	s.Append("fresh", Message{Text: "hello"})

	req.Len(s.History("fresh"), 1)
	req.Empty(s.Members("fresh"))
	req.Equal([]RoomInfo{{Name: "fresh", Stored: 1}}, s.Rooms())
}

func TestRoomStore_History_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(3)
	s.Append("r", Message{Text: "a"})

	h := s.History("r")
	h[0].Text = "mutated"

	req.Equal("a", s.History("r")[0].Text)
}

func TestRoomStore_Unknown_Room_Is_Empty(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(0)

	req.NotNil(s.History("ghost"))
	req.Empty(s.History("ghost"))
	req.NotNil(s.Members("ghost"))
	req.Empty(s.Members("ghost"))
	req.Zero(s.MemberCount("ghost"))
}

func TestRoomStore_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewRoomStore(0)

	s.Join("general", "c1")
	s.Join("general", "c1")
	req.Len(s.Members("general"), 1)

	s.Leave("c1", "general")
	s.Leave("c1", "general")
	s.Leave("c1", "ghost")
	req.Empty(s.Members("general"))
}
