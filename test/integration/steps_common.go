package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/bugout-dev/spire/pkg/identity"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	nonce        string
	journalIDs   map[string]string
	entryIDs     map[string]string
	lastCursor   string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc: tc,
		// Scenarios share one server and database, so journal names get
		// a per-scenario suffix to keep owners from colliding with
		// themselves across scenarios.
		nonce:      strings.Split(uuid.NewString(), "-")[0],
		journalIDs: make(map[string]string),
		entryIDs:   make(map[string]string),
	}
}

func (s *StepsContext) scopedName(name string) string {
	return name + "-" + s.nonce
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a Spire server is running$`, s.aSpireServerIsRunning)
	sc.Step(`^I am authenticated as user "([^"]*)"$`, s.iAmAuthenticatedAsUser)
	sc.Step(`^I am authenticated as user "([^"]*)" in groups "([^"]*)"$`, s.iAmAuthenticatedAsUserInGroups)
	sc.Step(`^I am not authenticated$`, s.iAmNotAuthenticated)

	// Journal steps
	sc.Step(`^I create a journal named "([^"]*)"$`, s.iCreateAJournalNamed)
	sc.Step(`^I fetch the journal "([^"]*)"$`, s.iFetchTheJournal)
	sc.Step(`^I list my journals$`, s.iListMyJournals)
	sc.Step(`^I rename the journal "([^"]*)" to "([^"]*)"$`, s.iRenameTheJournal)
	sc.Step(`^I delete the journal "([^"]*)"$`, s.iDeleteTheJournal)

	// Entry steps
	sc.Step(`^I create an entry in "([^"]*)" titled "([^"]*)" with content "([^"]*)"$`, s.iCreateAnEntry)
	sc.Step(`^I create an entry in "([^"]*)" titled "([^"]*)" with content "([^"]*)" and tags "([^"]*)"$`, s.iCreateAnEntryWithTags)
	sc.Step(`^I fetch the entry "([^"]*)" from "([^"]*)"$`, s.iFetchTheEntry)
	sc.Step(`^I update the entry "([^"]*)" in "([^"]*)" with content "([^"]*)"$`, s.iUpdateTheEntry)
	sc.Step(`^I delete the entry "([^"]*)" from "([^"]*)"$`, s.iDeleteTheEntry)

	// Permission steps
	sc.Step(`^I grant "([^"]*)" on "([^"]*)" to user "([^"]*)"$`, s.iGrantToUser)
	sc.Step(`^I grant "([^"]*)" on "([^"]*)" to group "([^"]*)"$`, s.iGrantToGroup)
	sc.Step(`^I revoke "([^"]*)" on "([^"]*)" from user "([^"]*)"$`, s.iRevokeFromUser)

	// Search steps
	sc.Step(`^I search "([^"]*)" for "([^"]*)"$`, s.iSearch)
	sc.Step(`^I search "([^"]*)" for "([^"]*)" filtered by tag "([^"]*)"$`, s.iSearchFilteredByTag)
	sc.Step(`^I search "([^"]*)" for "([^"]*)" with limit (\d+)$`, s.iSearchWithLimit)
	sc.Step(`^I fetch the next page of "([^"]*)" for "([^"]*)" with limit (\d+)$`, s.iFetchTheNextPage)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, s.theResponseBodyShouldContain)
	sc.Step(`^the search should return (\d+) results$`, s.theSearchShouldReturnResults)
	sc.Step(`^the search total should be (\d+)$`, s.theSearchTotalShouldBe)
	sc.Step(`^the search response should have a next cursor$`, s.theSearchShouldHaveNextCursor)
	sc.Step(`^the search response should have no next cursor$`, s.theSearchShouldHaveNoNextCursor)
}

// Background steps

func (s *StepsContext) aSpireServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) iAmAuthenticatedAsUser(userID string) error {
	return s.iAmAuthenticatedAsUserInGroups(userID, "")
}

func (s *StepsContext) iAmAuthenticatedAsUserInGroups(userID, groups string) error {
	var groupIDs []string
	for _, g := range strings.Split(groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groupIDs = append(groupIDs, g)
		}
	}

	token, err := identity.IssueToken(userID, groupIDs, []byte(testSigningKey), time.Hour)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iAmNotAuthenticated() error {
	s.authToken = ""
	return nil
}

// Journal steps

func (s *StepsContext) iCreateAJournalNamed(name string) error {
	if err := s.doJSON(http.MethodPost, "/journals", map[string]string{"name": s.scopedName(name)}); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var journal struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(s.responseBody, &journal); err != nil {
			return fmt.Errorf("failed to parse journal response: %w", err)
		}
		s.journalIDs[name] = journal.ID
	}
	return nil
}

func (s *StepsContext) iFetchTheJournal(name string) error {
	journalID, err := s.journalID(name)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodGet, "/journals/"+journalID, nil)
}

func (s *StepsContext) iListMyJournals() error {
	return s.doJSON(http.MethodGet, "/journals", nil)
}

func (s *StepsContext) iRenameTheJournal(name, newName string) error {
	journalID, err := s.journalID(name)
	if err != nil {
		return err
	}
	if err := s.doJSON(http.MethodPut, "/journals/"+journalID, map[string]string{"name": s.scopedName(newName)}); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusOK {
		s.journalIDs[newName] = journalID
	}
	return nil
}

func (s *StepsContext) iDeleteTheJournal(name string) error {
	journalID, err := s.journalID(name)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodDelete, "/journals/"+journalID, nil)
}

// Entry steps

func (s *StepsContext) iCreateAnEntry(journal, title, content string) error {
	return s.iCreateAnEntryWithTags(journal, title, content, "")
}

func (s *StepsContext) iCreateAnEntryWithTags(journal, title, content, tags string) error {
	journalID, err := s.journalID(journal)
	if err != nil {
		return err
	}

	var tagList []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tagList = append(tagList, t)
		}
	}

	payload := map[string]interface{}{
		"title":   title,
		"content": content,
		"tags":    tagList,
	}
	if err := s.doJSON(http.MethodPost, "/journals/"+journalID+"/entries", payload); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var entry struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(s.responseBody, &entry); err != nil {
			return fmt.Errorf("failed to parse entry response: %w", err)
		}
		s.entryIDs[title] = entry.ID
	}
	return nil
}

func (s *StepsContext) iFetchTheEntry(title, journal string) error {
	journalID, entryID, err := s.entryPath(journal, title)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodGet, "/journals/"+journalID+"/entries/"+entryID, nil)
}

func (s *StepsContext) iUpdateTheEntry(title, journal, content string) error {
	journalID, entryID, err := s.entryPath(journal, title)
	if err != nil {
		return err
	}
	payload := map[string]interface{}{
		"title":   title,
		"content": content,
	}
	return s.doJSON(http.MethodPut, "/journals/"+journalID+"/entries/"+entryID, payload)
}

func (s *StepsContext) iDeleteTheEntry(title, journal string) error {
	journalID, entryID, err := s.entryPath(journal, title)
	if err != nil {
		return err
	}
	return s.doJSON(http.MethodDelete, "/journals/"+journalID+"/entries/"+entryID, nil)
}

// Permission steps

func (s *StepsContext) iGrantToUser(permissions, journal, userID string) error {
	return s.mutateGrants(http.MethodPut, permissions, journal, "user", userID)
}

func (s *StepsContext) iGrantToGroup(permissions, journal, groupID string) error {
	return s.mutateGrants(http.MethodPut, permissions, journal, "group", groupID)
}

func (s *StepsContext) iRevokeFromUser(permissions, journal, userID string) error {
	return s.mutateGrants(http.MethodDelete, permissions, journal, "user", userID)
}

func (s *StepsContext) mutateGrants(method, permissions, journal, holderKind, holderID string) error {
	journalID, err := s.journalID(journal)
	if err != nil {
		return err
	}

	var perms []string
	for _, p := range strings.Split(permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, "journals."+p)
		}
	}

	payload := map[string]interface{}{
		"holder_type": holderKind,
		"holder_id":   holderID,
		"permissions": perms,
	}
	return s.doJSON(method, "/journals/"+journalID+"/scopes", payload)
}

// Search steps

func (s *StepsContext) iSearch(journal, query string) error {
	return s.searchWith(journal, query, "", 0, "")
}

func (s *StepsContext) iSearchFilteredByTag(journal, query, tag string) error {
	return s.searchWith(journal, query, "tag:"+tag, 0, "")
}

func (s *StepsContext) iSearchWithLimit(journal, query string, limit int) error {
	return s.searchWith(journal, query, "", limit, "")
}

func (s *StepsContext) iFetchTheNextPage(journal, query string, limit int) error {
	if s.lastCursor == "" {
		return fmt.Errorf("no cursor from previous search")
	}
	return s.searchWith(journal, query, "", limit, s.lastCursor)
}

func (s *StepsContext) searchWith(journal, query, filter string, limit int, cursor string) error {
	journalID, err := s.journalID(journal)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("q", query)
	if filter != "" {
		params.Add("filter", filter)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	if err := s.doJSON(http.MethodGet, "/journals/"+journalID+"/search?"+params.Encode(), nil); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusOK {
		page, err := s.searchPage()
		if err != nil {
			return err
		}
		s.lastCursor = page.NextCursor
	}
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response recorded")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d (body: %s)", status, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldContain(substr string) error {
	if !strings.Contains(string(s.responseBody), substr) {
		return fmt.Errorf("response body %q does not contain %q", s.responseBody, substr)
	}
	return nil
}

func (s *StepsContext) theSearchShouldReturnResults(count int) error {
	page, err := s.searchPage()
	if err != nil {
		return err
	}
	if len(page.Results) != count {
		return fmt.Errorf("expected %d results, got %d", count, len(page.Results))
	}
	return nil
}

func (s *StepsContext) theSearchTotalShouldBe(total int) error {
	page, err := s.searchPage()
	if err != nil {
		return err
	}
	if page.Total != uint64(total) {
		return fmt.Errorf("expected total %d, got %d", total, page.Total)
	}
	return nil
}

func (s *StepsContext) theSearchShouldHaveNextCursor() error {
	page, err := s.searchPage()
	if err != nil {
		return err
	}
	if page.NextCursor == "" {
		return fmt.Errorf("expected a next cursor, got none")
	}
	return nil
}

func (s *StepsContext) theSearchShouldHaveNoNextCursor() error {
	page, err := s.searchPage()
	if err != nil {
		return err
	}
	if page.NextCursor != "" {
		return fmt.Errorf("expected no next cursor, got %q", page.NextCursor)
	}
	return nil
}

// Helpers

type searchPageBody struct {
	Total      uint64            `json:"total_results"`
	Results    []json.RawMessage `json:"results"`
	NextCursor string            `json:"next_cursor"`
}

func (s *StepsContext) searchPage() (*searchPageBody, error) {
	var page searchPageBody
	if err := json.Unmarshal(s.responseBody, &page); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w (body: %s)", err, s.responseBody)
	}
	return &page, nil
}

func (s *StepsContext) journalID(name string) (string, error) {
	journalID, ok := s.journalIDs[name]
	if !ok {
		return "", fmt.Errorf("unknown journal %q", name)
	}
	return journalID, nil
}

func (s *StepsContext) entryPath(journal, title string) (string, string, error) {
	journalID, err := s.journalID(journal)
	if err != nil {
		return "", "", err
	}
	entryID, ok := s.entryIDs[title]
	if !ok {
		return "", "", fmt.Errorf("unknown entry %q", title)
	}
	return journalID, entryID, nil
}

func (s *StepsContext) doJSON(method, path string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}
