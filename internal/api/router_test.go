package api_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-api-server/internal/errcode"
	"game-api-server/internal/testutil"
)

func TestEnhanceUnownedItem(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := c.Post(t, "/enhance/item", map[string]any{"itemId": 999})
	assert.Equal(t, http.StatusNotFound, reply.Status)
	assert.Equal(t, errcode.CannotFindInventoryItem.Sub(), reply.Code())
}

func TestStageRun(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := c.Post(t, "/purchase/character", map[string]any{"characterCode": 1001})
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	charID := reply.Body.Get("characterId").Int()

	reply = c.Post(t, "/stage/enter", map[string]any{"stageCode": 10, "characterIds": []int64{charID}})
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	monsters := reply.Body.Get("monsterList").Array()
	require.Len(t, monsters, 1)
	assert.Equal(t, int64(101), monsters[0].Get("monsterCode").Int())
	assert.Equal(t, int64(3), monsters[0].Get("monsterCount").Int())

	for i := range 3 {
		reply = c.Post(t, "/stage/killMonster", map[string]any{"monsterCode": 101})
		require.Equal(t, http.StatusOK, reply.Status, "kill %d: %s", i+1, reply.Body.Raw)
		assert.Equal(t, 0, reply.Code())
	}

	reply = c.Post(t, "/stage/killMonster", map[string]any{"monsterCode": 101})
	assert.Equal(t, http.StatusConflict, reply.Status)
	assert.Equal(t, errcode.CannotKillMonster.Sub(), reply.Code())

	reply = c.Post(t, "/stage/clear", map[string]any{"stageCode": 10, "clearFlag": true})
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.True(t, reply.Body.Get("cleared").Bool())
	assert.Equal(t, int64(40), reply.Body.Get("gold").Int())

	reply = c.Post(t, "/stage/killMonster", map[string]any{"monsterCode": 101})
	assert.Equal(t, http.StatusNotFound, reply.Status)
	assert.Equal(t, errcode.NotFoundInStageSession.Sub(), reply.Code())
}

func TestPurchaseIsVisibleInCharacterList(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	// Warm the cached list before buying.
	reply := c.Post(t, "/inventory/characters", nil)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.Empty(t, reply.Body.Get("characters").Array())

	reply = c.Post(t, "/purchase/character", map[string]any{"characterCode": 1001})
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.Equal(t, 0, reply.Code())
	assert.Equal(t, int64(70), reply.Body.Get("currentGold").Int())
	assert.Equal(t, int64(40), reply.Body.Get("currentGem").Int())

	reply = c.Post(t, "/inventory/characters", nil)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	chars := reply.Body.Get("characters").Array()
	require.Len(t, chars, 1)
	assert.Equal(t, int64(1001), chars[0].Get("code").Int())
}

func TestAuthenticationFailures(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   errcode.Code
	}{
		{"missing fields", map[string]any{}, http.StatusBadRequest, errcode.FailedParseAuthorizeInfo},
		{"unknown email", map[string]any{"email": "x@y.com", "authToken": c.AuthToken}, http.StatusUnauthorized, errcode.NotFoundSession},
		{"bad token", map[string]any{"email": c.Email, "authToken": "nope"}, http.StatusUnauthorized, errcode.FailedAuthorizeTokenVerify},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := srv.Post(t, "/gameData", tt.body)
			assert.Equal(t, tt.status, reply.Status)
			assert.Equal(t, tt.code.Sub(), reply.Code())
		})
	}
}

func TestLoginFreshSessionReplacesToken(t *testing.T) {
	srv := testutil.NewServer(t)
	first := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := srv.Post(t, "/login", map[string]any{"email": "a@b.com", "password": "password1"})
	require.Equal(t, http.StatusOK, reply.Status)
	assert.NotEqual(t, first.AuthToken, reply.Body.Get("authToken").String())

	reply = first.Post(t, "/gameData", nil)
	assert.Equal(t, http.StatusUnauthorized, reply.Status)
}

func TestGameDataReflectsStartingBalance(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := c.Post(t, "/gameData", nil)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.Equal(t, int64(100), reply.Body.Get("gameData.gold").Int())
	assert.Equal(t, int64(50), reply.Body.Get("gameData.gem").Int())
	assert.Equal(t, c.UserID, reply.Body.Get("gameData.userId").Int())
}

func TestUnknownRouteAndMalformedBody(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := c.Post(t, "/no/such/route", nil)
	assert.Equal(t, http.StatusNotFound, reply.Status)
	assert.Equal(t, errcode.NotFoundRoute.Sub(), reply.Code())

	reply = c.Post(t, "/stage/enter", map[string]any{"stageCode": "ten"})
	assert.Equal(t, http.StatusBadRequest, reply.Status)
	assert.Equal(t, errcode.InvalidRequestBody.Sub(), reply.Code())
}

func TestRewardFlowThroughMail(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	reply := c.Post(t, "/attendanceCheck", nil)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.Equal(t, int64(1), reply.Body.Get("attendanceDay").Int())
	mailID := reply.Body.Get("mailId").Int()
	require.NotZero(t, mailID)

	reply = c.Post(t, "/attendanceCheck", nil)
	assert.Equal(t, http.StatusConflict, reply.Status)
	assert.Equal(t, errcode.AlreadyAttendedToday.Sub(), reply.Code())

	reply = c.Post(t, "/mail/get", nil)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	mails := reply.Body.Get("mails").Array()
	require.Len(t, mails, 1)
	assert.False(t, mails[0].Get("isReceive").Bool())

	reply = c.Post(t, "/mail/receive", map[string]any{"mailId": mailID})
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	assert.True(t, reply.Body.Get("mail.isReceive").Bool())

	reply = c.Post(t, "/mail/receive", map[string]any{"mailId": mailID})
	assert.Equal(t, http.StatusConflict, reply.Status)
	assert.Equal(t, errcode.AlreadyReceivedMail.Sub(), reply.Code())
}

func TestConcurrentRequestsNeverQueue(t *testing.T) {
	srv := testutil.NewServer(t)
	c := srv.RegisterAndLogin(t, "a@b.com", "password1")

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[int]int{}
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply := c.Post(t, "/gameData", nil)
			mu.Lock()
			results[reply.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, n, results[http.StatusOK]+results[http.StatusConflict], "%v", results)
	assert.GreaterOrEqual(t, results[http.StatusOK], 1)
}

func TestHealth(t *testing.T) {
	srv := testutil.NewServer(t)

	resp, err := srv.HTTP.Client().Get(srv.HTTP.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
