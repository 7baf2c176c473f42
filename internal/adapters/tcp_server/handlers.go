package tcpserver

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/devpablofiz/Hotelier/internal/adapters/observability"
	"github.com/devpablofiz/Hotelier/internal/domain"
)

// dispatch parses one protocol line and routes it. The comma split means
// argument values cannot contain commas or parentheses; a known protocol
// limitation.
func (s *Server) dispatch(conn net.Conn, w *bufio.Writer, line string) {
	parts := strings.SplitN(line, "(", 2)
	if len(parts) != 2 {
		respond(w, "Invalid command format")
		return
	}
	cmd := parts[0]
	args := strings.Split(strings.ReplaceAll(parts[1], ")", ""), ",")

	start := time.Now()
	outcome := "ok"
	switch cmd {
	case "login":
		if len(args) != 2 {
			respond(w, "Invalid arguments format, usage: login([username],[password])")
			outcome = "rejected"
			break
		}
		outcome = s.handleLogin(conn, w, args[0], args[1])
	case "logout":
		if len(args) != 1 {
			respond(w, "Invalid arguments format, usage: logout([username])")
			outcome = "rejected"
			break
		}
		outcome = s.handleLogout(conn, w, args[0])
	case "searchHotel":
		if len(args) != 2 {
			respond(w, "Invalid arguments format, usage: searchHotel([hotelName],[cityName])")
			outcome = "rejected"
			break
		}
		outcome = s.handleSearchHotel(w, args[0], args[1])
	case "searchAllHotels":
		if len(args) != 1 {
			respond(w, "Invalid arguments format, usage: searchAllHotels([cityName])")
			outcome = "rejected"
			break
		}
		outcome = s.handleSearchAllHotels(w, args[0])
	case "insertReview":
		if len(args) != 7 {
			respond(w, "Invalid arguments format, usage: "+
				"insertReview([hotelName],[cityName],[globalScore]"+
				",[positionScore],[cleaningScore],[serviceScore],[priceScore])")
			outcome = "rejected"
			break
		}
		outcome = s.handleInsertReview(conn, w, args)
	case "showMyBadges":
		if len(args) != 1 || args[0] != "" {
			respond(w, "Invalid arguments format, usage: showMyBadges()")
			outcome = "rejected"
			break
		}
		outcome = s.handleShowMyBadges(conn, w)
	default:
		respond(w, "Unknown command")
		outcome = "rejected"
		cmd = "unknown"
	}
	observability.ObserveCommand(cmd, outcome, time.Since(start))
}

func (s *Server) handleLogin(conn net.Conn, w *bufio.Writer, username, password string) string {
	if s.sessions.bound(username) {
		respond(w, "User already logged in")
		return "rejected"
	}

	ctx, cancel := s.storeCtx()
	defer cancel()
	verdict, err := s.users.Validate(ctx, username, password)
	if err != nil {
		log.Error().Err(err).Str("user", username).Msg("credential check failed")
		respond(w, "Login temporarily unavailable, try again")
		return "error"
	}

	switch verdict {
	case domain.LoginOK:
		// a concurrent login on another connection may have bound the user
		// between the check above and here
		if !s.sessions.bind(conn, username) {
			respond(w, "User already logged in")
			return "rejected"
		}
		respond(w, "Login successful!")
		return "ok"
	case domain.LoginUnknownUser:
		respond(w, "Username does not exist!")
	case domain.LoginBadPassword:
		respond(w, "Invalid password!")
	}
	return "rejected"
}

func (s *Server) handleLogout(conn net.Conn, w *bufio.Writer, username string) string {
	switch s.sessions.unbind(conn, username) {
	case unbindNotLoggedIn:
		respond(w, "User is not logged in")
		return "rejected"
	case unbindWrongConn:
		respond(w, "Socket not authenticated for this user")
		return "rejected"
	}
	respond(w, "Logout successful!")
	return "ok"
}

func (s *Server) handleSearchHotel(w *bufio.Writer, name, city string) string {
	hv, ok := s.reg.FindByNameAndCity(name, city)
	if !ok {
		respond(w, "No hotel found")
		return "ok"
	}
	respond(w, formatHotel(hv)...)
	return "ok"
}

func (s *Server) handleSearchAllHotels(w *bufio.Writer, city string) string {
	hotels := s.reg.ListByCity(city)
	if len(hotels) == 0 {
		respond(w, "No hotel found")
		return "ok"
	}
	var lines []string
	for i, hv := range hotels {
		lines = append(lines, fmt.Sprintf("Local Rank %d/%d", i+1, len(hotels)))
		lines = append(lines, formatHotel(hv)...)
	}
	respond(w, lines...)
	return "ok"
}

func (s *Server) handleInsertReview(conn net.Conn, w *bufio.Writer, args []string) string {
	username, ok := s.sessions.user(conn)
	if !ok {
		respond(w, "User needs to be logged in to insert a review")
		return "rejected"
	}

	// validate all five scores before any mutation
	scores := make([]int, 5)
	for i, raw := range args[2:] {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			respond(w, "Invalid arguments format, scores must be integers between 1 and 5")
			return "rejected"
		}
		if n < 1 || n > 5 {
			respond(w, "Invalid arguments format, scores must be between 1 and 5")
			return "rejected"
		}
		scores[i] = n
	}

	name, city := args[0], args[1]
	if !s.reg.SubmitReview(name, city, scores[0], scores[1], scores[2], scores[3], scores[4]) {
		respond(w, "Hotel "+name+" not found in "+city+"!")
		return "ok"
	}

	// counter bump only after the registry mutation succeeded; a store
	// failure costs a badge point, never the review
	ctx, cancel := s.storeCtx()
	defer cancel()
	if err := s.users.IncrementReviewCount(ctx, username); err != nil {
		log.Error().Err(err).Str("user", username).Msg("review counter increment failed")
	}
	respond(w, "Review added successfully")
	return "ok"
}

func (s *Server) handleShowMyBadges(conn net.Conn, w *bufio.Writer) string {
	username, ok := s.sessions.user(conn)
	if !ok {
		respond(w, "User needs to be logged in to request badges")
		return "rejected"
	}
	ctx, cancel := s.storeCtx()
	defer cancel()
	count, err := s.users.ReviewCount(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("user", username).Msg("review counter read failed")
		respond(w, "Badges temporarily unavailable, try again")
		return "error"
	}
	badge := domain.BadgeFor(count)
	if badge == "" {
		respond(w, "Submit at least one review to start collecting badges")
		return "ok"
	}
	respond(w, badge)
	return "ok"
}

// storeCtx bounds collaborator calls so a stuck credential backend cannot
// wedge a connection worker forever.
func (s *Server) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, 5*time.Second)
}

func formatHotel(hv domain.HotelView) []string {
	return []string{
		hv.Name,
		"Description: " + hv.Description,
		"City: " + hv.City,
		"Phone: " + hv.Phone,
		"Services: [" + strings.Join(hv.Services, ", ") + "]",
		fmt.Sprintf("Reviews: %d", hv.ReviewCount),
		fmt.Sprintf("Overall rating: %s/5.0", formatAvg(hv.Overall)),
		"Category ratings:",
		fmt.Sprintf("+Location: %s/5.0", formatAvg(hv.Location)),
		fmt.Sprintf("+Cleanliness: %s/5.0", formatAvg(hv.Cleanliness)),
		fmt.Sprintf("+Service: %s/5.0", formatAvg(hv.Service)),
		fmt.Sprintf("+Price: %s/5.0", formatAvg(hv.Price)),
		"==============================",
	}
}

func formatAvg(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
