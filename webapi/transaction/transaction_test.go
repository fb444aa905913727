package transaction_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/amirasaad/payledger/pkg/dto"
	"github.com/amirasaad/payledger/webapi/common"
	"github.com/amirasaad/payledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type TransactionTestSuite struct {
	suite.Suite
	app *testutils.TestApp

	senderID      uuid.UUID
	senderToken   string
	receiverID    uuid.UUID
	receiverToken string
}

func (s *TransactionTestSuite) SetupTest() {
	s.app = testutils.NewTestApp(s.T(), nil)
	s.senderID, s.senderToken = s.app.OpenAccount(s.T())
	s.receiverID, s.receiverToken = s.app.OpenAccount(s.T())
	s.app.Verify(s.T(), s.senderID)
	s.app.Verify(s.T(), s.receiverID)
}

func TestTransactionTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionTestSuite))
}

func (s *TransactionTestSuite) transferBody(amount string) string {
	return fmt.Sprintf(`{"receiver_id":%q,"amount":%s}`, s.receiverID, amount)
}

func (s *TransactionTestSuite) balanceOf(token string) string {
	resp := s.app.MakeRequest(http.MethodGet, "/accounts/me", "", token)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	return testutils.Decode[dto.AccountRead](s.T(), resp).Balance
}

func (s *TransactionTestSuite) TestTransfer() {
	s.Run("Transfer successfully", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"25.50"`), s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusCreated, resp.StatusCode)

		entry := testutils.Decode[dto.EntryRead](s.T(), resp)
		s.Equal("25.50", entry.Amount)
		s.Equal("Transfer", entry.Kind)
		s.Equal("sent", entry.Direction)
		s.Equal(s.receiverID, entry.ReceiverID)
		s.NotEmpty(entry.Code)

		s.Equal("974.50", s.balanceOf(s.senderToken))
		s.Equal("1025.50", s.balanceOf(s.receiverToken))
	})

	s.Run("Numeric amount is accepted", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`10`), s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusCreated, resp.StatusCode)
	})

	s.Run("Transfer without auth", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"1"`), "")
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	})
}

func (s *TransactionTestSuite) TestTransferRejections() {
	outsider, outsiderToken := s.app.OpenAccount(s.T())

	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"zero amount", s.senderToken, s.transferBody(`"0"`), fiber.StatusBadRequest},
		{"three decimals", s.senderToken, s.transferBody(`"1.005"`), fiber.StatusBadRequest},
		{"garbage amount", s.senderToken, s.transferBody(`"abc"`), fiber.StatusBadRequest},
		{"missing receiver", s.senderToken, `{"amount":"1"}`, fiber.StatusBadRequest},
		{"deposit kind", s.senderToken,
			fmt.Sprintf(`{"receiver_id":%q,"amount":"1","kind":"Deposit"}`, s.receiverID), fiber.StatusBadRequest},
		{"unknown receiver", s.senderToken,
			fmt.Sprintf(`{"receiver_id":%q,"amount":"1"}`, uuid.New()), fiber.StatusNotFound},
		{"to self", s.senderToken,
			fmt.Sprintf(`{"receiver_id":%q,"amount":"1"}`, s.senderID), fiber.StatusUnprocessableEntity},
		{"unverified receiver", s.senderToken,
			fmt.Sprintf(`{"receiver_id":%q,"amount":"1"}`, outsider), fiber.StatusForbidden},
		{"unverified sender", outsiderToken, s.transferBody(`"1"`), fiber.StatusForbidden},
		{"over limit", s.senderToken, s.transferBody(`"6000"`), fiber.StatusUnprocessableEntity},
		{"insufficient funds", s.senderToken, s.transferBody(`"1000.01"`), fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.app.MakeRequest(http.MethodPost, "/transfers", tt.body, tt.token)
			defer resp.Body.Close() //nolint:errcheck
			s.Equal(tt.status, resp.StatusCode)
			s.Equal("application/problem+json", resp.Header.Get("Content-Type"))
		})
	}

	s.Equal("1000.00", s.balanceOf(s.senderToken))
	s.Equal("1000.00", s.balanceOf(s.receiverToken))
}

func (s *TransactionTestSuite) TestConcurrentTransfersNeverOverdraw() {
	// Drain to 100.00 first.
	resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"900"`), s.senderToken)
	resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"60"`), s.senderToken)
			defer resp.Body.Close() //nolint:errcheck
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	s.ElementsMatch([]int{fiber.StatusCreated, fiber.StatusUnprocessableEntity}, statuses)
	s.Equal("40.00", s.balanceOf(s.senderToken))
	s.Equal("1960.00", s.balanceOf(s.receiverToken))
}

func (s *TransactionTestSuite) TestTransferIdempotency() {
	key := map[string]string{common.IdempotencyKeyHeader: uuid.NewString()}

	first := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"5"`), s.senderToken, key)
	defer first.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusCreated, first.StatusCode)
	firstEntry := testutils.Decode[dto.EntryRead](s.T(), first)

	second := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(`"5"`), s.senderToken, key)
	defer second.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusCreated, second.StatusCode)
	s.Equal("true", second.Header.Get(common.IdempotentReplayHeader))
	s.Equal(firstEntry.ID, testutils.Decode[dto.EntryRead](s.T(), second).ID)

	s.Equal("995.00", s.balanceOf(s.senderToken))

	s.Run("Same key from another caller is independent", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/transfers",
			fmt.Sprintf(`{"receiver_id":%q,"amount":"5"}`, s.senderID), s.receiverToken, key)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusCreated, resp.StatusCode)
		s.Empty(resp.Header.Get(common.IdempotentReplayHeader))
	})
}

func (s *TransactionTestSuite) TestDeposit() {
	_, unverifiedToken := s.app.OpenAccount(s.T())

	s.Run("Deposit into unverified account", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/deposits", `{"amount":"50.25"}`, unverifiedToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
		entry := testutils.Decode[dto.EntryRead](s.T(), resp)
		s.Equal("Deposit", entry.Kind)
		s.Equal("received", entry.Direction)
		s.Equal(uuid.Nil, entry.SenderID)
		s.Equal("1050.25", s.balanceOf(unverifiedToken))
	})

	s.Run("Negative deposit", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/deposits", `{"amount":"-1"}`, unverifiedToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	})

	s.Run("Deposit without account", func() {
		resp := s.app.MakeRequest(http.MethodPost, "/deposits", `{"amount":"1"}`,
			s.app.Token(s.T(), uuid.New(), false))
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusNotFound, resp.StatusCode)
	})
}

func (s *TransactionTestSuite) TestHistory() {
	for _, amount := range []string{`"1"`, `"2"`, `"3"`} {
		resp := s.app.MakeRequest(http.MethodPost, "/transfers", s.transferBody(amount), s.senderToken)
		resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	}

	s.Run("Newest first", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions", "", s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
		entries := testutils.Decode[[]dto.EntryRead](s.T(), resp)
		s.Require().Len(entries, 3)
		s.Equal([]string{"3.00", "2.00", "1.00"},
			[]string{entries[0].Amount, entries[1].Amount, entries[2].Amount})
		for i := 1; i < len(entries); i++ {
			s.True(entries[i-1].CreatedAt.After(entries[i].CreatedAt))
		}
	})

	s.Run("Paging", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions?limit=1&offset=1", "", s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
		entries := testutils.Decode[[]dto.EntryRead](s.T(), resp)
		s.Require().Len(entries, 1)
		s.Equal("2.00", entries[0].Amount)
	})

	s.Run("Negative paging", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions?limit=-1", "", s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	})

	s.Run("Receiver sees received entries", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions", "", s.receiverToken)
		defer resp.Body.Close() //nolint:errcheck
		entries := testutils.Decode[[]dto.EntryRead](s.T(), resp)
		s.Require().Len(entries, 3)
		s.Equal("received", entries[0].Direction)
	})

	s.Run("Latest sent and received", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions/latest-sent", "", s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
		s.Equal("3.00", testutils.Decode[dto.EntryRead](s.T(), resp).Amount)

		resp2 := s.app.MakeRequest(http.MethodGet, "/transactions/latest-received", "", s.receiverToken)
		defer resp2.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusOK, resp2.StatusCode)
		s.Equal("3.00", testutils.Decode[dto.EntryRead](s.T(), resp2).Amount)
	})

	s.Run("Nothing received yet", func() {
		resp := s.app.MakeRequest(http.MethodGet, "/transactions/latest-received", "", s.senderToken)
		defer resp.Body.Close() //nolint:errcheck
		s.Equal(fiber.StatusNotFound, resp.StatusCode)
	})
}
