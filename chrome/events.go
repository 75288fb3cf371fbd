package chrome

import (
	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/network"
)

// networkEventMethod maps a decoded protocol event to its Network.* method
// name. Events outside the network domain are not forwarded.
func networkEventMethod(ev any) (string, bool) {
	switch ev.(type) {
	case *network.EventRequestWillBeSent:
		return string(cdproto.EventNetworkRequestWillBeSent), true
	case *network.EventRequestWillBeSentExtraInfo:
		return string(cdproto.EventNetworkRequestWillBeSentExtraInfo), true
	case *network.EventResponseReceived:
		return string(cdproto.EventNetworkResponseReceived), true
	case *network.EventResponseReceivedExtraInfo:
		return string(cdproto.EventNetworkResponseReceivedExtraInfo), true
	case *network.EventDataReceived:
		return string(cdproto.EventNetworkDataReceived), true
	case *network.EventLoadingFinished:
		return string(cdproto.EventNetworkLoadingFinished), true
	case *network.EventLoadingFailed:
		return string(cdproto.EventNetworkLoadingFailed), true
	case *network.EventRequestServedFromCache:
		return string(cdproto.EventNetworkRequestServedFromCache), true
	case *network.EventResourceChangedPriority:
		return string(cdproto.EventNetworkResourceChangedPriority), true
	case *network.EventEventSourceMessageReceived:
		return string(cdproto.EventNetworkEventSourceMessageReceived), true
	case *network.EventSignedExchangeReceived:
		return string(cdproto.EventNetworkSignedExchangeReceived), true
	case *network.EventWebSocketCreated:
		return string(cdproto.EventNetworkWebSocketCreated), true
	case *network.EventWebSocketClosed:
		return string(cdproto.EventNetworkWebSocketClosed), true
	case *network.EventWebSocketFrameError:
		return string(cdproto.EventNetworkWebSocketFrameError), true
	case *network.EventWebSocketFrameReceived:
		return string(cdproto.EventNetworkWebSocketFrameReceived), true
	case *network.EventWebSocketFrameSent:
		return string(cdproto.EventNetworkWebSocketFrameSent), true
	case *network.EventWebSocketHandshakeResponseReceived:
		return string(cdproto.EventNetworkWebSocketHandshakeResponseReceived), true
	case *network.EventWebSocketWillSendHandshakeRequest:
		return string(cdproto.EventNetworkWebSocketWillSendHandshakeRequest), true
	default:
		return "", false
	}
}
