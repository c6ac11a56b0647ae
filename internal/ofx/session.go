package ofx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/bankfeed-dev/bankfeed/internal/banking"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// DialConfig carries the connection data for an OFX Direct Connect dialog.
// BankID is the bank's routing or bank code; Org and FID identify the
// financial institution and may be empty for banks that do not use them.
type DialConfig struct {
	URL      string
	Org      string
	FID      string
	BankID   string
	UserID   string
	Password string
}

// Session speaks OFX Direct Connect. Authentication rides along in every
// request's signon, so the session never raises banking.ChallengeRequired;
// the challenge path exists for session clients whose protocol interrupts
// the fetch.
type Session struct {
	client ofxgo.Client
	cfg    DialConfig

	// acctTypes remembers the type the bank reported for each account in
	// Accounts, so statement requests ask for the right kind. Keyed by
	// ACCTID. The type rides in a BankAcct wrapper because ofxgo does not
	// export a name for its account-type enum.
	acctTypes map[string]ofxgo.BankAcct
}

// Dial prepares a session client. No network traffic happens until the
// first request.
func Dial(cfg DialConfig) *Session {
	return &Session{
		client:    ofxgo.GetClient(cfg.URL, &ofxgo.BasicClient{AppID: "QWIN", AppVer: "2700"}),
		cfg:       cfg,
		acctTypes: make(map[string]ofxgo.BankAcct),
	}
}

// Accounts implements banking.SessionClient. The account's ACCTID is
// reported as its IBAN; SEPA banks put the IBAN there.
func (s *Session) Accounts(ctx context.Context) ([]banking.Account, error) {
	req, err := s.newRequest()
	if err != nil {
		return nil, err
	}
	uid, err := ofxgo.RandomUID()
	if err != nil {
		return nil, fmt.Errorf("generating transaction uid: %w", err)
	}
	req.Signup = append(req.Signup, &ofxgo.AcctInfoRequest{
		TrnUID:   *uid,
		DtAcctUp: ofxgo.Date{Time: time.Unix(0, 0)},
	})

	resp, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var accounts []banking.Account
	for _, msg := range resp.Signup {
		info, ok := msg.(*ofxgo.AcctInfoResponse)
		if !ok {
			continue
		}
		for _, ai := range info.AcctInfo {
			if ai.BankAcctInfo == nil {
				continue
			}
			acctID := string(ai.BankAcctInfo.BankAcctFrom.AcctID)
			s.acctTypes[acctID] = ofxgo.BankAcct{AcctType: ai.BankAcctInfo.BankAcctFrom.AcctType}
			accounts = append(accounts, banking.Account{
				IBAN: acctID,
				Name: string(ai.Desc),
			})
		}
	}
	return accounts, nil
}

// Statements implements banking.SessionClient.
func (s *Session) Statements(ctx context.Context, account banking.Account, from, to time.Time) ([]model.Statement, error) {
	req, err := s.newRequest()
	if err != nil {
		return nil, err
	}
	stmtReq, err := s.statementRequest(account, from, to)
	if err != nil {
		return nil, err
	}
	req.Bank = append(req.Bank, stmtReq)

	resp, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return statementsFromResponse(resp)
}

// statementRequest asks for the account with the type the bank reported in
// the account listing. Checking is the fallback for accounts the session
// never listed.
func (s *Session) statementRequest(account banking.Account, from, to time.Time) (*ofxgo.StatementRequest, error) {
	uid, err := ofxgo.RandomUID()
	if err != nil {
		return nil, fmt.Errorf("generating transaction uid: %w", err)
	}
	acctType := ofxgo.AcctTypeChecking
	if listed, ok := s.acctTypes[account.IBAN]; ok {
		acctType = listed.AcctType
	}
	return &ofxgo.StatementRequest{
		TrnUID: *uid,
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   ofxgo.String(s.cfg.BankID),
			AcctID:   ofxgo.String(account.IBAN),
			AcctType: acctType,
		},
		DtStart: &ofxgo.Date{Time: from},
		DtEnd:   &ofxgo.Date{Time: to},
		Include: true,
	}, nil
}

// CompleteChallenge implements banking.SessionClient.
func (s *Session) CompleteChallenge(ctx context.Context, continuation any, code string) ([]model.Statement, error) {
	return nil, errors.New("ofx: direct connect sessions do not issue challenges")
}

// send dispatches the request and fails on a non-success signon. ofxgo has
// no context support, so cancellation is only honored between requests.
func (s *Session) send(ctx context.Context, req *ofxgo.Request) (*ofxgo.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.client.Request(req)
	if err != nil {
		return nil, fmt.Errorf("ofx request: %w", err)
	}
	if resp.Signon.Status.Code != 0 {
		meaning, _ := resp.Signon.Status.CodeMeaning()
		return nil, fmt.Errorf("ofx signon failed: %s (code %d) %s",
			meaning, resp.Signon.Status.Code, resp.Signon.Status.Message)
	}
	return resp, nil
}

func (s *Session) newRequest() (*ofxgo.Request, error) {
	uid, err := ofxgo.RandomUID()
	if err != nil {
		return nil, fmt.Errorf("generating client uid: %w", err)
	}
	var req ofxgo.Request
	req.URL = s.cfg.URL
	req.Signon = ofxgo.SignonRequest{
		ClientUID: *uid,
		Org:       ofxgo.String(s.cfg.Org),
		Fid:       ofxgo.String(s.cfg.FID),
		UserID:    ofxgo.String(s.cfg.UserID),
		UserPass:  ofxgo.String(s.cfg.Password),
	}
	return &req, nil
}
